package tests

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	. "github.com/infort/rh/apps/api/echo"
	"github.com/infort/rh/core"
	"github.com/infort/rh/core/announcement"
	"github.com/infort/rh/core/event"
	"github.com/infort/rh/core/meeting"
	"github.com/infort/rh/core/notification"
	"github.com/infort/rh/core/payslip"
	"github.com/infort/rh/core/timeoff"
	"github.com/infort/rh/core/user"
	emailsvc "github.com/infort/rh/services/email"
	"github.com/infort/rh/services/filestore"
	sqlxrepos "github.com/infort/rh/storage/database/sqlx"
	"github.com/infort/rh/testutil"
)

var (
	conf     *core.Config
	usrRepo  user.Repository
	usrSvc   *user.Service
	notifSvc *notification.Service
	mailSvc  *emailsvc.ConsoleServiceMock
	files    *filestore.Disk

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
)

// setup starts a server backed by a fresh in-memory database. opts tweak the test configuration.
func setup(t *testing.T, opts ...func(*core.Config)) Server {
	conf = testutil.Config(t)
	for _, opt := range opts {
		opt(conf)
	}

	// set up DB & repos
	db := testutil.OpenDB(t, conf)
	usrRepo = sqlxrepos.NewUserRepository(db)

	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)
	timeoff.InitValidators(validate, translator)

	// set up services
	var err error
	files, err = filestore.NewDisk(conf.Uploads.Dir)
	require.NoError(t, err)
	mailSvc = emailsvc.NewConsoleServiceMock(conf, testutil.NopLogger{})
	usrSvc = user.NewService(usrRepo, mailSvc, conf)
	notifSvc = notification.NewService(sqlxrepos.NewNotificationRepository(db))

	// set up server
	return NewServer(ServerDeps{
		Conf:            conf,
		Logger:          testutil.NopLogger{},
		AccessLog:       zerolog.Nop(),
		UploadsDir:      files.Root(),
		UserSvc:         usrSvc,
		NotificationSvc: notifSvc,
		TimeOffSvc:      timeoff.NewService(db, sqlxrepos.NewTimeOffRepository(db), usrSvc, notifSvc, files),
		MeetingSvc:      meeting.NewService(db, sqlxrepos.NewMeetingRepository(db), usrSvc, notifSvc),
		PayslipSvc:      payslip.NewService(sqlxrepos.NewPayslipRepository(db), usrSvc, files),
		AnnouncementSvc: announcement.NewService(sqlxrepos.NewAnnouncementRepository(db), files),
		EventSvc:        event.NewService(db, sqlxrepos.NewEventRepository(db), usrSvc, notifSvc),
		Validate:        validate,
		Translator:      translator,
	})
}

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

type formFile struct {
	field    string
	filename string
	content  []byte
}

func newMultipartRequest(
	t *testing.T,
	method, path, token string,
	fields map[string]string,
	uploads ...formFile,
) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range uploads {
		fw, err := w.CreateFormFile(f.field, f.filename)
		require.NoError(t, err)
		_, err = fw.Write(f.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, httptest.NewRecorder()
}

func getToken(t *testing.T, usr user.User) string {
	token, err := usrSvc.GenerateToken(usr)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func unmarshal(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dest), rec.Body.String())
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
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app Server, tests []httpTest) {
	for _, tt := range tests {
		if tt.method == "" {
			tt.method = http.MethodGet
		}
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func ids(t *testing.T, rec *httptest.ResponseRecorder) []int {
	var objs []struct {
		ID int `json:"id"`
	}
	unmarshal(t, rec, &objs)
	res := make([]int, len(objs))
	for i, o := range objs {
		res[i] = o.ID
	}
	return res
}
