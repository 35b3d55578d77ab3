package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/edupoints/core"
	"github.com/trezcool/edupoints/core/leaderboard"
	"github.com/trezcool/edupoints/core/loader"
	"github.com/trezcool/edupoints/core/mockgen"
	"github.com/trezcool/edupoints/core/reward"
	"github.com/trezcool/edupoints/core/session"
	"github.com/trezcool/edupoints/core/user"
	emailsvc "github.com/trezcool/edupoints/services/email"
	logsvc "github.com/trezcool/edupoints/services/logger"
	"github.com/trezcool/edupoints/storage"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

type testApp struct {
	*Server
	backend *storage.Backend
}

// newTestApp serves an in-memory backend with no simulated latency. opts are applied to every session.
func newTestApp(t *testing.T, conf *core.Config, opts ...session.Option) *testApp {
	t.Helper()
	if conf == nil {
		conf = core.NewTestConfig()
	}

	backend, err := storage.Open(context.Background(), conf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
	gen := mockgen.NewSeeded(conf.Mock.Seed)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	leaderboard.InitValidators(validate, translator)

	sessOpts := append([]session.Option{
		session.WithDelay(conf.Mock.LoginDelay),
		session.WithGenerator(gen),
		session.WithLogger(logger),
	}, opts...)

	srv := NewServer(ServerDeps{
		Conf:       conf,
		Logger:     logger,
		Sessions:   session.NewManager(backend.Sessions, sessOpts...),
		Loaders:    loader.NewRegistry(),
		Generator:  gen,
		RewardSvc:  reward.NewService(backend.Rewards, gen, emailsvc.NewConsoleServiceMock(conf, logger), logger),
		Validate:   validate,
		Translator: translator,
	})
	return &testApp{Server: srv, backend: backend}
}

func (app *testApp) do(req *http.Request, rec *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	app.ServeHTTP(rec, req)
	return rec
}

type loginResult struct {
	Token string          `json:"token"`
	User  json.RawMessage `json:"user"`
}

// login logs in through the API and returns the token with the account it resolved to.
func (app *testApp) login(t *testing.T, email string, role user.Role, token ...string) (string, user.Account) {
	t.Helper()
	var tok string
	if len(token) > 0 {
		tok = token[0]
	}
	body := marshallObj(t, user.LoginRequest{Email: email, Password: "secret", Role: role})
	rec := app.do(newAuthRequest(http.MethodPost, "/v1/auth/login", tok, body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res loginResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	acct, err := user.UnmarshalAccount(res.User)
	require.NoError(t, err)
	return res.Token, acct
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj(): %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app *testApp, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(newAuthRequest(tt.method, tt.path, tt.token, tt.body))
			checkCodeAndData(t, tt, rec)
		})
	}
}

func newTestGenerator() *mockgen.Generator {
	return mockgen.NewSeeded(7)
}

func parseTestToken(t *testing.T, app *testApp, token string) Claims {
	t.Helper()
	claims := new(Claims)
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(app.deps.Conf.SecretKey), nil
	})
	require.NoError(t, err)
	return *claims
}
