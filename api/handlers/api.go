package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/stripe/stripe-go/v82"
	"go.uber.org/zap"

	"github.com/mindsell/tutor-portal-api/api"
	"github.com/mindsell/tutor-portal-api/api/scheduler"
	"github.com/mindsell/tutor-portal-api/calendar"
	"github.com/mindsell/tutor-portal-api/config"
	"github.com/mindsell/tutor-portal-api/databases"
	"github.com/mindsell/tutor-portal-api/models"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router    *mux.Router
	DB        databases.CollectionHelper
	Config    config.Config
	dbHelper  databases.DatabaseHelper
	hub       *Hub
	calSvc    *calendar.Service
	mailer    Mailer
	Scheduler *scheduler.Scheduler
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	// setup go-guardian for middleware
	m := api.MiddlewareDB{DB: databases.NewStudentDatabase(a.dbHelper), Config: a.Config}
	m.SetupGoGuardian()

	// admin-only routes carry an HS256 session token on top of basic auth
	adminOnly := func(h http.HandlerFunc) http.Handler {
		return api.AdminOnly(a.Config.JWTSecret, h)
	}

	r := mux.NewRouter()

	st := Student{DB: databases.NewStudentDatabase(a.dbHelper), LibDB: databases.NewLibraryDatabase(a.dbHelper), Notifier: Notification{DB: databases.NewNotificationDatabase(a.dbHelper), Hub: a.hub}}
	lib := Library{DB: databases.NewLibraryDatabase(a.dbHelper), StudentDB: databases.NewStudentDatabase(a.dbHelper)}
	off := Offer{DB: databases.NewOfferDatabase(a.dbHelper), BaseURL: a.Config.BaseURL}
	chat := Chat{ConvDB: databases.NewConversationDatabase(a.dbHelper), MsgDB: databases.NewMessageDatabase(a.dbHelper), Hub: a.hub}
	notif := Notification{DB: databases.NewNotificationDatabase(a.dbHelper), Hub: a.hub}
	book := Booking{DB: databases.NewBookingDatabase(a.dbHelper), Mailer: a.mailer}
	cal := Calendar{Service: a.calSvc}
	admin := Admin{Config: a.Config}
	cloudinaryHandler := CloudinaryHandler{UploadPreset: a.Config.CloudinaryUploadPreset, APISecret: a.Config.CloudinaryAPISecret}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()

	apiCreate.Handle("/auth/token", api.Middleware(http.HandlerFunc(m.CreateToken))).Methods("POST")
	apiCreate.Handle("/auth/logout", api.Middleware(http.HandlerFunc(api.RevokeToken))).Methods("DELETE")
	apiCreate.Handle("/admin/login", http.HandlerFunc(admin.LoginHandler)).Methods("POST")

	// the calendar bridge is called by the booking widget before login. It
	// makes two upstream Google calls, so it gets a hard timeout.
	apiCreate.Handle("/calendar", api.TimeoutMiddleware(10*time.Second)(http.HandlerFunc(cal.UpcomingEventsHandler))).Methods("GET")

	apiCreate.Handle("/students", api.Middleware(http.HandlerFunc(st.StudentsHandler))).Methods("GET")
	apiCreate.Handle("/student", adminOnly(st.StudentCreateHandler)).Methods("POST")
	apiCreate.Handle("/student/{student_id}", api.Middleware(http.HandlerFunc(st.StudentByIDHandler))).Methods("GET")
	apiCreate.Handle("/student/{student_id}", adminOnly(st.UpdateStudentHandler)).Methods("PUT")
	apiCreate.Handle("/student/{student_id}", adminOnly(st.DeleteStudentHandler)).Methods("DELETE")
	apiCreate.Handle("/student/{student_id}/notes", adminOnly(st.UpdateNotesHandler)).Methods("PUT")
	apiCreate.Handle("/student/{student_id}/modules", adminOnly(st.AssignModulesHandler)).Methods("POST")
	apiCreate.Handle("/student/{student_id}/modules/{module_id}/videos/{video_index}", api.Middleware(http.HandlerFunc(st.MarkVideoDoneHandler))).Methods("PUT")
	apiCreate.Handle("/student/{student_id}/packages", adminOnly(st.AddPackageHandler)).Methods("POST")
	apiCreate.Handle("/student/{student_id}/packages/{package_index}/use", adminOnly(st.UseSessionHandler)).Methods("PUT")
	apiCreate.Handle("/student/{student_id}/recordings", adminOnly(st.AddRecordingHandler)).Methods("POST")
	apiCreate.Handle("/student/{student_id}/contents", adminOnly(st.AddContentHandler)).Methods("POST")

	apiCreate.Handle("/student/{student_id}/notifications", adminOnly(notif.AddNotificationHandler)).Methods("POST")
	apiCreate.Handle("/student/{student_id}/notifications", api.Middleware(http.HandlerFunc(notif.NotificationsHandler))).Methods("GET")
	apiCreate.Handle("/student/{student_id}/notifications/read", api.Middleware(http.HandlerFunc(notif.MarkNotificationsReadHandler))).Methods("PUT")

	apiCreate.Handle("/library", api.Middleware(http.HandlerFunc(lib.LibraryHandler))).Methods("GET")
	apiCreate.Handle("/library", adminOnly(lib.CreateLibraryModuleHandler)).Methods("POST")
	apiCreate.Handle("/library/{module_id}", api.Middleware(http.HandlerFunc(lib.LibraryModuleByIDHandler))).Methods("GET")
	apiCreate.Handle("/library/{module_id}", adminOnly(lib.UpdateLibraryModuleHandler)).Methods("PUT")
	apiCreate.Handle("/library/{module_id}", adminOnly(lib.DeleteLibraryModuleHandler)).Methods("DELETE")
	apiCreate.Handle("/library/{module_id}/videos", adminOnly(lib.AddVideoHandler)).Methods("POST")

	apiCreate.Handle("/offers", api.Middleware(http.HandlerFunc(off.OffersHandler))).Methods("GET")
	apiCreate.Handle("/offers", adminOnly(off.CreateOfferHandler)).Methods("POST")
	apiCreate.Handle("/offers/{offer_id}", adminOnly(off.UpdateOfferHandler)).Methods("PUT")
	apiCreate.Handle("/offers/{offer_id}", adminOnly(off.DeleteOfferHandler)).Methods("DELETE")
	apiCreate.Handle("/offers/{offer_id}/create-checkout-session", api.Middleware(http.HandlerFunc(off.CreateCheckoutSessionHandler))).Methods("POST")

	apiCreate.Handle("/chats", api.Middleware(http.HandlerFunc(chat.ConversationsHandler))).Methods("GET")
	apiCreate.Handle("/chat/{student_id}/messages", api.Middleware(http.HandlerFunc(chat.MessagesHandler))).Methods("GET")
	apiCreate.Handle("/chat/{student_id}/messages", api.Middleware(http.HandlerFunc(chat.SendMessageHandler))).Methods("POST")
	apiCreate.Handle("/chat/{student_id}/read", api.Middleware(http.HandlerFunc(chat.MarkReadHandler))).Methods("PUT")
	apiCreate.Handle("/chat/{student_id}/unread", api.Middleware(http.HandlerFunc(chat.UnreadCountHandler))).Methods("GET")

	apiCreate.Handle("/bookings", api.Middleware(http.HandlerFunc(book.CreateBookingHandler))).Methods("POST")
	apiCreate.Handle("/bookings", adminOnly(book.BookingsHandler)).Methods("GET")
	apiCreate.Handle("/bookings/{booking_id}", adminOnly(book.DeleteBookingHandler)).Methods("DELETE")

	apiCreate.Handle("/generate-signature", api.Middleware(http.HandlerFunc(cloudinaryHandler.GenerateSignature))).Methods("POST")

	apiCreate.Handle("/success", http.HandlerFunc(off.handleSuccessRedirect)).Methods("GET")
	apiCreate.Handle("/cancel", http.HandlerFunc(off.handleCancelRedirect)).Methods("GET")

	// live streams. Auth is handled in-band by the frontend session, the
	// sockets only ever push data out.
	r.HandleFunc("/ws/chat", a.hub.ChatStreamHandler)
	r.HandleFunc("/ws/chats", a.hub.ConversationsStreamHandler)
	r.HandleFunc("/ws/notifications", a.hub.NotificationsStreamHandler)

	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("tutor-portal-api has connected to the database")

	// initialize stripe
	if a.Config.StripeSecretKey == "" {
		return fmt.Errorf("stripe secret key is not set")
	}
	stripe.Key = a.Config.StripeSecretKey

	a.hub = NewHub()
	a.mailer = SendgridMailer{APIKey: a.Config.SendgridAPIKey, AdminEmail: a.Config.AdminEmail}
	a.calSvc = calendar.New(calendar.Config{
		ClientEmail: a.Config.GoogleClientEmail,
		PrivateKey:  a.Config.GooglePrivateKey,
		CalendarID:  a.Config.GoogleCalendarID,
	})

	a.Scheduler = scheduler.NewScheduler(
		databases.NewOfferDatabase(a.dbHelper),
		databases.NewConversationDatabase(a.dbHelper),
		a.mailer,
	)
	a.Scheduler.Start()

	// initialize api router
	a.initializeRoutes()
	return nil

}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
