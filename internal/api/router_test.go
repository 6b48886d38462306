package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/masterdash/masterdash/internal/access"
	iauth "github.com/masterdash/masterdash/internal/auth"
	"github.com/masterdash/masterdash/internal/dashboards"
	testutil "github.com/masterdash/masterdash/internal/database/testutil"
	"github.com/masterdash/masterdash/internal/models"
	"github.com/masterdash/masterdash/internal/warehouse"
	"github.com/masterdash/masterdash/pkg/crypto"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
	jwt    *iauth.JWTService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	whDB := testutil.MustOpenTestDB(t)
	require.NoError(t, whDB.Exec(`CREATE TABLE vw_ventas (
		fecha TEXT NOT NULL,
		sucursal TEXT NOT NULL,
		region TEXT NOT NULL,
		monto REAL NOT NULL
	)`).Error)
	for _, row := range [][]any{
		{"2024-05-01", "Centro 1", "Norte", 1000.0},
		{"2024-05-01", "Norte 2", "Norte", 2000.0},
		{"2024-05-01", "Sur 1", "Sur", 1500.0},
		{"2024-05-01", "Valpo", "Centro", 3000.0},
	} {
		require.NoError(t, whDB.Exec(
			"INSERT INTO vw_ventas (fecha, sucursal, region, monto) VALUES (?, ?, ?, ?)", row...,
		).Error)
	}
	store := warehouse.NewStore(whDB, 0)

	jwtService, err := iauth.NewJWTService(iauth.JWTConfig{Secret: "test-secret", Issuer: "masterdash-test"})
	require.NoError(t, err)

	registry, err := dashboards.NewRegistry()
	require.NoError(t, err)

	resolver, err := access.NewResolver(db)
	require.NoError(t, err)
	gateway, err := access.NewGateway(resolver, store)
	require.NoError(t, err)

	router, err := NewRouter(Options{
		DB:        db,
		Warehouse: store,
		Gateway:   gateway,
		Registry:  registry,
		JWT:       jwtService,
	})
	require.NoError(t, err)

	return &testEnv{router: router, db: db, jwt: jwtService}
}

func (e *testEnv) createUser(t *testing.T, email, password, role string) *models.User {
	t.Helper()

	hashed, err := crypto.HashPassword(password)
	require.NoError(t, err)
	user := &models.User{Email: email, Name: "Test", Password: hashed, Role: role}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func (e *testEnv) createDashboard(t *testing.T, slug string) *models.Dashboard {
	t.Helper()

	dashboard := &models.Dashboard{Slug: slug, Title: "Dashboard " + slug, IsActive: true}
	require.NoError(t, e.db.Create(dashboard).Error)
	return dashboard
}

func (e *testEnv) token(t *testing.T, user *models.User) string {
	t.Helper()

	token, err := e.jwt.GenerateAccessToken(iauth.AccessTokenInput{UserID: user.ID, Role: user.Role})
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestLoginAndMe(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "ana@x.cl", "secret123", models.RoleUser)

	rec := env.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "ana@x.cl", "password": "secret123"})
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	body := decodeEnvelope(t, rec)
	require.True(t, body.Success)
	require.NoError(t, json.Unmarshal(body.Data, &payload))
	require.NotEmpty(t, payload.Token)

	me := env.do(t, http.MethodGet, "/api/auth/me", payload.Token, nil)
	require.Equal(t, http.StatusOK, me.Code)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "ana@x.cl", "secret123", models.RoleUser)

	rec := env.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "ana@x.cl", "password": "nope"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	unknown := env.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "ghost@x.cl", "password": "nope"})
	require.Equal(t, http.StatusUnauthorized, unknown.Code)
	// Same error either way.
	require.Equal(t, rec.Body.String(), unknown.Body.String())
}

func TestDashboardDataRequiresAuth(t *testing.T) {
	env := newTestEnv(t)
	env.createDashboard(t, "ventas")

	rec := env.do(t, http.MethodGet, "/api/dashboards/ventas/data", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDashboardDataScopedUser(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "u@x.cl", "secret123", models.RoleUser)
	dashboard := env.createDashboard(t, "ventas")

	grant := models.DashboardAccess{UserID: user.ID, DashboardID: dashboard.ID}
	grant.Scope = []byte(`{"regions":["Norte","Sur"],"sucursales":["*"]}`)
	require.NoError(t, env.db.Create(&grant).Error)

	rec := env.do(t, http.MethodGet, "/api/dashboards/ventas/data", env.token(t, user), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Dashboard string           `json:"dashboard"`
		Rows      []map[string]any `json:"rows"`
		Scope     *access.Scope    `json:"accessScope"`
	}
	body := decodeEnvelope(t, rec)
	require.NoError(t, json.Unmarshal(body.Data, &payload))
	require.Equal(t, "ventas", payload.Dashboard)
	require.Len(t, payload.Rows, 3)
	require.Equal(t, []string{"Norte", "Sur"}, payload.Scope.Regions)
}

func TestDashboardDataAdminUnrestricted(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "admin@x.cl", "secret123", models.RoleAdmin)
	env.createDashboard(t, "ventas")

	rec := env.do(t, http.MethodGet, "/api/dashboards/ventas/data", env.token(t, admin), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Rows []map[string]any `json:"rows"`
	}
	body := decodeEnvelope(t, rec)
	require.NoError(t, json.Unmarshal(body.Data, &payload))
	require.Len(t, payload.Rows, 4)
}

func TestDashboardDataDeniedWithoutGrant(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "u@x.cl", "secret123", models.RoleUser)
	env.createDashboard(t, "ventas")

	rec := env.do(t, http.MethodGet, "/api/dashboards/ventas/data", env.token(t, user), nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	body := decodeEnvelope(t, rec)
	require.NotNil(t, body.Error)
	require.Equal(t, "DASHBOARD_ACCESS_DENIED", body.Error.Code)

	var denial models.AuditLog
	require.NoError(t, env.db.Where("action = ?", "dashboard.data.denied").First(&denial).Error)
	require.Equal(t, "ventas", denial.Resource)
	require.NotNil(t, denial.UserID)
	require.Equal(t, user.ID, *denial.UserID)
}

func TestDashboardDataNullScopeReturnsNoRows(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "u@x.cl", "secret123", models.RoleUser)
	dashboard := env.createDashboard(t, "ventas")
	require.NoError(t, env.db.Create(&models.DashboardAccess{UserID: user.ID, DashboardID: dashboard.ID}).Error)

	rec := env.do(t, http.MethodGet, "/api/dashboards/ventas/data", env.token(t, user), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Rows []map[string]any `json:"rows"`
	}
	body := decodeEnvelope(t, rec)
	require.NoError(t, json.Unmarshal(body.Data, &payload))
	require.Empty(t, payload.Rows)
}

func TestDashboardDataUnknownSlug(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "admin@x.cl", "secret123", models.RoleAdmin)

	// Registered query but no catalogue row.
	rec := env.do(t, http.MethodGet, "/api/dashboards/ventas/data", env.token(t, admin), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	// Neither registered nor catalogued.
	rec = env.do(t, http.MethodGet, "/api/dashboards/no-such/data", env.token(t, admin), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "u@x.cl", "secret123", models.RoleUser)

	rec := env.do(t, http.MethodGet, "/api/admin/users", env.token(t, user), nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminUserAndPermissionFlow(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "admin@x.cl", "secret123", models.RoleAdmin)
	token := env.token(t, admin)

	created := env.do(t, http.MethodPost, "/api/admin/users", token, gin.H{
		"email":    "nuevo@x.cl",
		"name":     "Nuevo",
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, created.Code)

	var newUser models.User
	body := decodeEnvelope(t, created)
	require.NoError(t, json.Unmarshal(body.Data, &newUser))

	dashboard := env.createDashboard(t, "ventas")

	granted := env.do(t, http.MethodPost, "/api/admin/permissions", token, gin.H{
		"user_id":      newUser.ID,
		"dashboard_id": dashboard.ID,
		"access_scope": gin.H{"regions": []string{"Norte"}},
	})
	require.Equal(t, http.StatusCreated, granted.Code)

	dup := env.do(t, http.MethodPost, "/api/admin/permissions", token, gin.H{
		"user_id":      newUser.ID,
		"dashboard_id": dashboard.ID,
	})
	require.Equal(t, http.StatusConflict, dup.Code)

	badScope := env.do(t, http.MethodPost, "/api/admin/permissions", token, gin.H{
		"user_id":      newUser.ID,
		"dashboard_id": dashboard.ID,
		"access_scope": "not-json-object",
	})
	require.Equal(t, http.StatusBadRequest, badScope.Code)
}

func TestSidebarListsOnlyGrantedDashboards(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "u@x.cl", "secret123", models.RoleUser)
	ventas := env.createDashboard(t, "ventas")
	env.createDashboard(t, "uso-crm")

	require.NoError(t, env.db.Create(&models.DashboardAccess{UserID: user.ID, DashboardID: ventas.ID}).Error)

	rec := env.do(t, http.MethodGet, "/api/dashboards", env.token(t, user), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list []models.Dashboard
	body := decodeEnvelope(t, rec)
	require.NoError(t, json.Unmarshal(body.Data, &list))
	require.Len(t, list, 1)
	require.Equal(t, "ventas", list[0].Slug)
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestUnknownRouteIsJSON404(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/nope", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "application/json")
}
