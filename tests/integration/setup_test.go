package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/bakehouse-api/config"
	"github.com/kendall-kelly/bakehouse-api/models"
	"github.com/kendall-kelly/bakehouse-api/routes"
	"github.com/kendall-kelly/bakehouse-api/services"
	"github.com/kendall-kelly/bakehouse-api/tests/testutil"
	"github.com/kendall-kelly/bakehouse-api/utils"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

// apiSuite runs requests against the fully wired router backed by a fresh in-memory
// database for every test
type apiSuite struct {
	suite.Suite
	cfg    *config.Config
	db     *gorm.DB
	log    *logrus.Logger
	hook   *test.Hook
	store  *services.MockS3Service
	broker *services.MemoryBroker
	tokens *services.TokenService
	router *gin.Engine
}

func (s *apiSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	testutil.MustSetTestEnvironment(s.T())
	s.Require().NoError(utils.RegisterValidators())
}

func (s *apiSuite) SetupTest() {
	s.cfg = testutil.TestConfig()
	s.db = testutil.NewTestDB(s.T())
	s.log, s.hook = testutil.NewTestLogger()
	s.tokens = services.NewTokenService(s.cfg)
	s.broker = services.NewMemoryBroker()

	images, store := services.NewMockImageService()
	s.store = store
	s.router = s.buildRouter(images)
}

func (s *apiSuite) buildRouter(images services.ImageService) *gin.Engine {
	router, err := routes.NewRouter(routes.Deps{Config: s.cfg, DB: s.db, Log: s.log, Images: images, Broker: s.broker})
	s.Require().NoError(err)
	return router
}

// request sends body as JSON with token as the bearer credential when set
func (s *apiSuite) request(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *apiSuite) decode(w *httptest.ResponseRecorder) map[string]interface{} {
	var response map[string]interface{}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response), w.Body.String())
	return response
}

// data returns the data object of a successful response
func (s *apiSuite) data(w *httptest.ResponseRecorder) map[string]interface{} {
	response := s.decode(w)
	s.Require().Equal(true, response["success"], w.Body.String())
	data, ok := response["data"].(map[string]interface{})
	s.Require().True(ok, w.Body.String())
	return data
}

func (s *apiSuite) errorCode(w *httptest.ResponseRecorder) string {
	response := s.decode(w)
	s.Require().Equal(false, response["success"], w.Body.String())
	return response["error"].(map[string]interface{})["code"].(string)
}

// register opens a customer account through the API and returns its id and token
func (s *apiSuite) register(name string) (uint, string) {
	w := s.request(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":     name + "@example.com",
		"username":  name,
		"password":  "correct-horse",
		"full_name": name,
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	data := s.data(w)
	user := data["user"].(map[string]interface{})
	return uint(user["id"].(float64)), data["token"].(string)
}

// staff provisions a user with role directly and issues a token for them
func (s *apiSuite) staff(name, role string) (*models.User, string) {
	user := testutil.CreateUser(s.T(), s.db, name, role)
	token, err := s.tokens.Issue(user)
	s.Require().NoError(err)
	return user, token
}

func pathf(format string, args ...interface{}) string {
	return fmt.Sprintf(format, args...)
}

func idOf(data map[string]interface{}) uint {
	return uint(data["id"].(float64))
}

// list returns the data array of a successful response
func (s *apiSuite) list(w *httptest.ResponseRecorder) []interface{} {
	response := s.decode(w)
	s.Require().Equal(true, response["success"], w.Body.String())
	items, ok := response["data"].([]interface{})
	s.Require().True(ok, w.Body.String())
	return items
}
