package acceptance

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/bakehouse-api/config"
	"github.com/kendall-kelly/bakehouse-api/models"
	"github.com/kendall-kelly/bakehouse-api/routes"
	"github.com/kendall-kelly/bakehouse-api/services"
	"github.com/kendall-kelly/bakehouse-api/tests/testutil"
	"github.com/kendall-kelly/bakehouse-api/utils"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

const password = "correct-horse"

// BakeryAcceptanceTestSuite drives a running server over real HTTP connections
type BakeryAcceptanceTestSuite struct {
	suite.Suite
	// prepare fills in the database and broker settings of the config for a backend
	prepare func(t *testing.T, cfg *config.Config)

	cfg    *config.Config
	db     *gorm.DB
	broker services.Broker
	server *httptest.Server
	seq    int
}

func TestBakeryAcceptanceSQLite(t *testing.T) {
	suite.Run(t, &BakeryAcceptanceTestSuite{
		prepare: func(t *testing.T, cfg *config.Config) {},
	})
}

func TestBakeryAcceptancePostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping container-backed acceptance tests in short mode")
	}
	suite.Run(t, &BakeryAcceptanceTestSuite{
		prepare: func(t *testing.T, cfg *config.Config) {
			cfg.DBDriver = "postgres"
			cfg.DatabaseURL = startPostgres(t)
			cfg.RedisURL = startRedis(t)
		},
	})
}

func (s *BakeryAcceptanceTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	testutil.MustSetTestEnvironment(s.T())
	s.Require().NoError(utils.RegisterValidators())

	s.cfg = testutil.TestConfig()
	s.prepare(s.T(), s.cfg)

	log, _ := testutil.NewTestLogger()
	db, err := config.ConnectDatabase(s.cfg, log)
	s.Require().NoError(err)
	s.Require().NoError(config.Migrate(db))
	s.db = db

	deps := routes.Deps{Config: s.cfg, DB: db, Log: log}
	if s.cfg.RedisURL != "" {
		broker, err := services.NewRedisBroker(context.Background(), s.cfg.RedisURL)
		s.Require().NoError(err)
		deps.Broker = broker
		s.broker = broker
	}
	deps.Images, _ = services.NewMockImageService()

	router, err := routes.NewRouter(deps)
	s.Require().NoError(err)
	s.server = httptest.NewServer(router)
}

func (s *BakeryAcceptanceTestSuite) TearDownSuite() {
	if s.server != nil {
		s.server.Close()
	}
	if s.broker != nil {
		s.broker.Close()
	}
	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			sqlDB.Close()
		}
	}
}

type apiResponse struct {
	Status  int
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (r apiResponse) code() string {
	if r.Error == nil {
		return ""
	}
	return r.Error.Code
}

func (s *BakeryAcceptanceTestSuite) call(method, path, token string, body interface{}) apiResponse {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, s.server.URL+path, reader)
	s.Require().NoError(err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	out := apiResponse{Status: resp.StatusCode}
	if resp.StatusCode == http.StatusNoContent {
		return out
	}
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (s *BakeryAcceptanceTestSuite) into(r apiResponse, v interface{}) {
	s.Require().True(r.Success, "status %d: %s", r.Status, r.code())
	s.Require().NoError(json.Unmarshal(r.Data, v))
}

// unique makes names distinct across the tests sharing the suite database
func (s *BakeryAcceptanceTestSuite) unique(name string) string {
	s.seq++
	return fmt.Sprintf("%s%d", name, s.seq)
}

// account creates a user with role and logs in through the API
func (s *BakeryAcceptanceTestSuite) account(name, role string) (uint, string) {
	name = s.unique(name)
	hash, err := services.HashPassword(password)
	s.Require().NoError(err)

	user := models.User{Email: name + "@example.com", Username: name, PasswordHash: hash, FullName: name, Role: role}
	s.Require().NoError(s.db.Create(&user).Error)

	return user.ID, s.login(user.Email)
}

func (s *BakeryAcceptanceTestSuite) login(email string) string {
	resp := s.call(http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": password})
	var result struct {
		Token string `json:"token"`
	}
	s.into(resp, &result)
	return result.Token
}

func (s *BakeryAcceptanceTestSuite) registerCustomer(name string) (uint, string) {
	name = s.unique(name)
	resp := s.call(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":     name + "@example.com",
		"username":  name,
		"password":  password,
		"full_name": name,
	})
	s.Require().Equal(http.StatusCreated, resp.Status)

	var result struct {
		User struct {
			ID uint `json:"id"`
		} `json:"user"`
		Token string `json:"token"`
	}
	s.into(resp, &result)
	return result.User.ID, result.Token
}

type entity struct {
	ID          uint   `json:"id"`
	Status      string `json:"status"`
	TotalAmount string `json:"total_amount"`
	Message     string `json:"message"`
}

func (s *BakeryAcceptanceTestSuite) TestHealth() {
	resp, err := http.Get(s.server.URL + "/api/health")
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)
}

// TestCustomerJourney orders a cake, talks to the baker and reviews the delivery
func (s *BakeryAcceptanceTestSuite) TestCustomerJourney() {
	mainID, mainToken := s.account("maria", models.RoleMainBaker)
	juniorID, juniorToken := s.account("jules", models.RoleJuniorBaker)
	testutil.AddToTeam(s.T(), s.db, mainID, juniorID)
	_, customerToken := s.registerCustomer("carla")

	var product entity
	s.into(s.call(http.MethodPost, "/api/products", mainToken, map[string]interface{}{
		"name": "Carrot Cake", "category": "cakes", "price": "18.25",
	}), &product)

	var order entity
	s.into(s.call(http.MethodPost, "/api/orders", customerToken, map[string]interface{}{
		"items":         []map[string]interface{}{{"product_id": product.ID, "quantity": 2}},
		"shipping_info": map[string]string{"full_name": "Carla", "phone": "555-0100", "address": "1 Main Street"},
	}), &order)
	s.Equal("36.5", order.TotalAmount)
	s.Equal(models.OrderStatusPending, order.Status)

	resp := s.call(http.MethodPatch, fmt.Sprintf("/api/orders/%d/assign", order.ID), mainToken, map[string]interface{}{"junior_baker_id": juniorID})
	s.Require().Equal(http.StatusOK, resp.Status, resp.code())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	stream := s.openStream(ctx, fmt.Sprintf("/api/chats/%d/stream", order.ID), customerToken)

	var msg entity
	s.into(s.call(http.MethodPost, "/api/chats", juniorToken, map[string]interface{}{"order_id": order.ID, "message": "Started baking"}), &msg)

	id, data := s.nextEvent(stream)
	s.Equal(fmt.Sprint(msg.ID), id)
	s.Contains(data, "Started baking")

	for _, status := range []string{
		models.OrderStatusProcessing, models.OrderStatusQualityCheck, models.OrderStatusReady, models.OrderStatusDelivered,
	} {
		resp := s.call(http.MethodPatch, fmt.Sprintf("/api/orders/%d/status", order.ID), juniorToken, map[string]string{"status": status})
		s.Require().Equal(http.StatusOK, resp.Status, "%s: %s", status, resp.code())
	}

	resp = s.call(http.MethodPost, "/api/reviews", customerToken, map[string]interface{}{"order_id": order.ID, "rating": 5, "comment": "Perfect"})
	s.Require().Equal(http.StatusCreated, resp.Status, resp.code())

	var rating struct {
		Average float64 `json:"average"`
		Count   int64   `json:"count"`
	}
	s.into(s.call(http.MethodGet, fmt.Sprintf("/api/bakers/%d/rating", juniorID), "", nil), &rating)
	s.Equal(5.0, rating.Average)
	s.Equal(int64(1), rating.Count)
}

// TestConcurrentApproval sends the same approval many times at once
func (s *BakeryAcceptanceTestSuite) TestConcurrentApproval() {
	mainID, _ := s.account("mina", models.RoleMainBaker)
	_, adminToken := s.account("ada", models.RoleAdmin)
	_, applicantToken := s.registerCustomer("pat")

	var application entity
	s.into(s.call(http.MethodPost, "/api/baker-applications", applicantToken, map[string]interface{}{
		"main_baker_id": mainID, "reason": "I love sourdough",
	}), &application)

	const attempts = 6
	statuses := make(chan int, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req, err := http.NewRequest(http.MethodPatch, fmt.Sprintf("%s/api/admin/baker-applications/%d/approve", s.server.URL, application.ID), nil)
			if err != nil {
				statuses <- 0
				return
			}
			req.Header.Set("Authorization", "Bearer "+adminToken)
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				statuses <- 0
				return
			}
			resp.Body.Close()
			statuses <- resp.StatusCode
		}()
	}
	wg.Wait()
	close(statuses)

	counts := map[int]int{}
	for status := range statuses {
		counts[status]++
	}
	s.Equal(1, counts[http.StatusOK], "exactly one approval wins: %v", counts)
	s.Equal(attempts-1, counts[http.StatusConflict], "%v", counts)

	var team []struct {
		ID uint `json:"id"`
	}
	s.into(s.call(http.MethodGet, fmt.Sprintf("/api/main-bakers/%d/team", mainID), applicantToken, nil), &team)
	s.Len(team, 1)
}

func (s *BakeryAcceptanceTestSuite) openStream(ctx context.Context, path, token string) *bufio.Reader {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.server.URL+path+"?access_token="+token, nil)
	s.Require().NoError(err)

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	s.T().Cleanup(func() { resp.Body.Close() })
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	return bufio.NewReader(resp.Body)
}

// nextEvent returns the id and data of the next chat_message frame
func (s *BakeryAcceptanceTestSuite) nextEvent(r *bufio.Reader) (string, string) {
	var id, event, data string
	for {
		line, err := r.ReadString('\n')
		s.Require().NoError(err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if event == "chat_message" {
				return id, data
			}
			id, event, data = "", "", ""
		case strings.HasPrefix(line, "id:"):
			id = strings.TrimPrefix(line, "id:")
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimPrefix(line, "event:")
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimPrefix(line, "data:")
		}
	}
}
