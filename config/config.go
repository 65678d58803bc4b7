package config

import (
	"encoding/json"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/mindsell/tutor-portal-api/models"
)

// Config holds the project config values. It is built once at process start
// and handed to the App; nothing reads credentials from the environment after
// this point.
type Config struct {
	URL          string
	DatabaseName string
	BaseURL      string
	Port         string

	AdminEmail        string
	AdminPasswordHash string
	JWTSecret         string

	// Google Calendar service account
	GoogleClientEmail string
	GooglePrivateKey  string
	GoogleCalendarID  string

	SendgridAPIKey  string
	StripeSecretKey string

	CloudinaryUploadPreset string
	CloudinaryAPISecret    string
}

// New sets up all config related services
func New() *Config {

	//setup zap logger and replace default logger
	logger := zap.NewExample()
	defer logger.Sync()
	_ = zap.ReplaceGlobals(logger)

	return &Config{
		URL:          os.Getenv("DB_URI"),
		DatabaseName: os.Getenv("DB_NAME"),
		BaseURL:      os.Getenv("BASE_URL"),
		Port:         os.Getenv("PORT"),

		AdminEmail:        os.Getenv("ADMIN_EMAIL"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		JWTSecret:         os.Getenv("JWT_SECRET"),

		GoogleClientEmail: os.Getenv("GOOGLE_CLIENT_EMAIL"),
		GooglePrivateKey:  os.Getenv("GOOGLE_PRIVATE_KEY"),
		GoogleCalendarID:  os.Getenv("GOOGLE_CALENDAR_ID"),

		SendgridAPIKey:  os.Getenv("SENDGRID_API_KEY"),
		StripeSecretKey: os.Getenv("STRIPE_SECRET_KEY"),

		CloudinaryUploadPreset: os.Getenv("CLOUDINARY_UPLOAD_PRESET"),
		CloudinaryAPISecret:    os.Getenv("CLOUDINARY_API_SECRET"),
	}

}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().With(err).Error(message)
	w.WriteHeader(httpStatusCode)
	b, _ := json.Marshal(models.ErrorMessageResponse{Response: models.MessageError{
		Message: message,
		Error:   err.Error(),
	}})
	w.Write(b)
}
