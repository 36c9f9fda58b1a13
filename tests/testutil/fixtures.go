package testutil

import (
	"bytes"
	"mime/multipart"
	"net/textproto"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/bakehouse-api/middleware"
	"github.com/kendall-kelly/bakehouse-api/models"
	"github.com/kendall-kelly/bakehouse-api/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// PNGContent is the smallest body that passes image content sniffing as a PNG
var PNGContent = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)

// CreateUser inserts a user with the given role. Its email is <name>@bakehouse.test.
func CreateUser(t *testing.T, db *gorm.DB, name, role string) *models.User {
	t.Helper()

	user := models.User{
		Email:        name + "@bakehouse.test",
		Username:     name,
		PasswordHash: "not-a-real-hash",
		FullName:     name,
		Role:         role,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

// CreateProduct inserts an available product owned by mainBakerID
func CreateProduct(t *testing.T, db *gorm.DB, mainBakerID uint, name, price string) *models.Product {
	t.Helper()

	product := models.Product{
		Name:        name,
		Price:       decimal.RequireFromString(price),
		Category:    "cakes",
		MainBakerID: mainBakerID,
		IsAvailable: true,
	}
	require.NoError(t, db.Create(&product).Error)
	return &product
}

// AddToTeam puts juniorBakerID in mainBakerID's team
func AddToTeam(t *testing.T, db *gorm.DB, mainBakerID, juniorBakerID uint) *models.BakerTeam {
	t.Helper()

	team := models.BakerTeam{
		MainBakerID:   mainBakerID,
		JuniorBakerID: juniorBakerID,
		IsActive:      true,
		AssignedAt:    time.Now(),
	}
	require.NoError(t, db.Create(&team).Error)
	return &team
}

// As returns a middleware that authenticates every request as user
func As(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.SetPrincipal(c, services.PrincipalFor(user))
		c.Next()
	}
}

// ImageFileHeader builds the multipart file header an upload of content as filename produces
func ImageFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="`+filename+`"`)
	h.Set("Content-Type", "application/octet-stream")
	part, err := writer.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	form, err := multipart.NewReader(body, writer.Boundary()).ReadForm(int64(len(content)) + 1024)
	require.NoError(t, err)
	require.Len(t, form.File["image"], 1)
	return form.File["image"][0]
}
