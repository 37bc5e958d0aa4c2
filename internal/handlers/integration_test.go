package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/palanikathirvel/realestatefinal-sub000/internal/api"
	"github.com/palanikathirvel/realestatefinal-sub000/internal/auth"
	"github.com/palanikathirvel/realestatefinal-sub000/internal/database/testutil"
	"github.com/palanikathirvel/realestatefinal-sub000/internal/handlers"
	"github.com/palanikathirvel/realestatefinal-sub000/internal/models"
	"github.com/palanikathirvel/realestatefinal-sub000/internal/otp"
	"github.com/palanikathirvel/realestatefinal-sub000/internal/services"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newTestServer(t *testing.T) (*gin.Engine, *services.UserService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())

	jwtService, err := auth.NewJWTService(auth.JWTConfig{
		Secret:         "integration-secret",
		Issuer:         "integration",
		AccessTokenTTL: time.Minute,
	})
	require.NoError(t, err)

	users, err := services.NewUserService(db)
	require.NoError(t, err)
	activity, err := services.NewActivityService(db)
	require.NoError(t, err)
	notifications, err := services.NewNotificationService(db, nil)
	require.NoError(t, err)
	policies, err := services.NewPolicyService(db)
	require.NoError(t, err)
	verification, err := services.NewVerificationService(db, policies, nil, notifications, activity)
	require.NoError(t, err)
	listings, err := services.NewListingService(db, verification, activity)
	require.NoError(t, err)

	store, err := otp.NewStore(db)
	require.NoError(t, err)
	disclosure, err := services.NewDisclosureService(store, listings, nil, notifications, activity,
		services.WithCodeEcho(true),
	)
	require.NoError(t, err)

	router := api.NewRouter(api.Handlers{
		Health:        handlers.NewHealthHandler(db),
		Auth:          handlers.NewAuthHandler(users, activity, jwtService),
		Listings:      handlers.NewListingHandler(listings, "http://localhost:8080"),
		Verification:  handlers.NewVerificationHandler(verification, policies, activity),
		Disclosure:    handlers.NewDisclosureHandler(disclosure),
		Notifications: handlers.NewNotificationHandler(notifications, nil),
		Activity:      handlers.NewActivityHandler(activity),
	}, api.Options{
		JWT:              jwtService,
		OTPRequestLimit:  100,
		OTPRequestWindow: time.Minute,
	})

	return router, users
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var env envelope
	if len(w.Body.Bytes()) > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func loginAs(t *testing.T, router *gin.Engine, username, password string) string {
	t.Helper()

	w, env := doJSON(t, router, http.MethodPost, "/api/auth/login", "", gin.H{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var payload struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	require.NotEmpty(t, payload.Token)
	return payload.Token
}

func TestSubmitReviewDiscloseFlow(t *testing.T) {
	router, users := newTestServer(t)

	suffix := fmt.Sprintf("%d", time.Now().UnixNano())

	// Agents self-register; the admin account is provisioned directly.
	w, _ := doJSON(t, router, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "agent-" + suffix,
		"email":    "agent-" + suffix + "@example.com",
		"password": "agent-password-1",
		"role":     models.RoleAgent,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	_, err := users.Create(context.Background(), services.CreateUserInput{
		Username: "admin-" + suffix,
		Email:    "admin-" + suffix + "@example.com",
		Password: "admin-password-1",
		Role:     models.RoleAdmin,
	})
	require.NoError(t, err)

	agentToken := loginAs(t, router, "agent-"+suffix, "agent-password-1")
	adminToken := loginAs(t, router, "admin-"+suffix, "admin-password-1")

	// Submit a listing; manual mode leaves it pending.
	w, env := doJSON(t, router, http.MethodPost, "/api/listings", agentToken, gin.H{
		"type":          "house",
		"title":         "Integration house " + suffix,
		"price":         4500000,
		"city":          "Salem-" + suffix,
		"survey_number": "SF-" + suffix,
		"owner_name":    "Hidden Owner",
		"owner_phone":   "+91-9111122222",
		"owner_email":   "owner-" + suffix + "@example.com",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var listing struct {
		ID                 string `json:"id"`
		VerificationStatus string `json:"verification_status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &listing))
	require.Equal(t, models.StatusPendingVerification, listing.VerificationStatus)
	require.NotContains(t, w.Body.String(), "+91-9111122222")

	// The pending listing is invisible to the public catalogue.
	w, env = doJSON(t, router, http.MethodGet, "/api/listings?city=Salem-"+suffix, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page []json.RawMessage
	require.NoError(t, json.Unmarshal(env.Data, &page))
	require.Empty(t, page)

	// Non-admins cannot decide.
	w, _ = doJSON(t, router, http.MethodPost, "/api/listings/"+listing.ID+"/decision", agentToken, gin.H{
		"decision": "verified",
	})
	require.Equal(t, http.StatusForbidden, w.Code)

	// The admin approves, making the listing public.
	w, _ = doJSON(t, router, http.MethodPost, "/api/listings/"+listing.ID+"/decision", adminToken, gin.H{
		"decision": "verified",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w, env = doJSON(t, router, http.MethodGet, "/api/listings?city=Salem-"+suffix, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &page))
	require.Len(t, page, 1)
	require.NotContains(t, w.Body.String(), "+91-9111122222")

	// The agent received the verification outcome notification.
	w, env = doJSON(t, router, http.MethodGet, "/api/notifications/unread-count", agentToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var unread struct {
		Unread int64 `json:"unread"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &unread))
	require.EqualValues(t, 1, unread.Unread)

	// Contact disclosure: request a code, then trade it for the owner view.
	w, env = doJSON(t, router, http.MethodPost, "/api/listings/"+listing.ID+"/contact/request-code", "", gin.H{
		"email": "buyer-" + suffix + "@example.com",
	})
	require.Equal(t, http.StatusAccepted, w.Code)
	var challenge struct {
		Sent bool   `json:"sent"`
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &challenge))
	require.True(t, challenge.Sent)
	require.Len(t, challenge.Code, 6)

	w, env = doJSON(t, router, http.MethodPost, "/api/listings/"+listing.ID+"/contact/verify-code", "", gin.H{
		"email": "buyer-" + suffix + "@example.com",
		"otp":   challenge.Code,
	})
	require.Equal(t, http.StatusOK, w.Code)
	var contact struct {
		OwnerName  string `json:"owner_name"`
		OwnerPhone string `json:"owner_phone"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &contact))
	require.Equal(t, "Hidden Owner", contact.OwnerName)
	require.Equal(t, "+91-9111122222", contact.OwnerPhone)

	// Reusing the code fails.
	w, env = doJSON(t, router, http.MethodPost, "/api/listings/"+listing.ID+"/contact/verify-code", "", gin.H{
		"email": "buyer-" + suffix + "@example.com",
		"otp":   challenge.Code,
	})
	require.Equal(t, http.StatusConflict, w.Code)
	require.NotNil(t, env.Error)
	require.Equal(t, "OTP_CONSUMED", env.Error.Code)
}

func TestVerificationModeEndpoint(t *testing.T) {
	router, users := newTestServer(t)

	suffix := fmt.Sprintf("%d", time.Now().UnixNano())
	_, err := users.Create(context.Background(), services.CreateUserInput{
		Username: "mode-admin-" + suffix,
		Email:    "mode-admin-" + suffix + "@example.com",
		Password: "admin-password-1",
		Role:     models.RoleAdmin,
	})
	require.NoError(t, err)
	adminToken := loginAs(t, router, "mode-admin-"+suffix, "admin-password-1")

	// Unauthenticated mode switches are rejected.
	w, _ := doJSON(t, router, http.MethodPut, "/api/verification/mode", "", gin.H{"mode": "auto"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = doJSON(t, router, http.MethodPut, "/api/verification/mode", adminToken, gin.H{"mode": "auto"})
	require.Equal(t, http.StatusOK, w.Code)

	w, env := doJSON(t, router, http.MethodGet, "/api/verification/mode", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var mode struct {
		Mode string `json:"mode"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &mode))
	require.Equal(t, models.ModeAuto, mode.Mode)

	// Restore manual for other tests sharing the database.
	w, _ = doJSON(t, router, http.MethodPut, "/api/verification/mode", adminToken, gin.H{"mode": "manual"})
	require.Equal(t, http.StatusOK, w.Code)
}
