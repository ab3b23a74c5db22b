package tests

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infort/rh/core"
	"github.com/infort/rh/core/payslip"
	"github.com/infort/rh/core/user"
	"github.com/infort/rh/testutil"
)

func payslipFields(usr user.User, month, year int) map[string]string {
	return map[string]string{
		"userId": strconv.Itoa(usr.ID),
		"month":  strconv.Itoa(month),
		"year":   strconv.Itoa(year),
	}
}

func storedPayslips(t *testing.T) int {
	entries, err := os.ReadDir(filepath.Join(files.Root(), core.BucketPayslips))
	require.NoError(t, err)
	return len(entries)
}

func Test_payslipApi_upload(t *testing.T) {
	app := setup(t)

	ana := testutil.CreateUser(t, usrRepo, "Ana", "ana@infort.test", "secret", user.RoleEmployee, user.StatusActive)
	carlos := testutil.CreateUser(t, usrRepo, "Carlos", "carlos@infort.test", "secret", user.RoleHR, user.StatusActive)
	hrToken := getToken(t, carlos)
	pdf := formFile{field: "file", filename: "holerite.pdf", content: pdfContent}

	upload := func(token string, fields map[string]string, uploads ...formFile) *httptest.ResponseRecorder {
		req, rec := newMultipartRequest(t, http.MethodPost, "/api/payslips", token, fields, uploads...)
		app.ServeHTTP(rec, req)
		return rec
	}

	t.Run("HR only", func(t *testing.T) {
		rec := upload(getToken(t, ana), payslipFields(ana, 7, 2024), pdf)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
	t.Run("missing file", func(t *testing.T) {
		rec := upload(hrToken, payslipFields(ana, 7, 2024))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"file":"this field is required"}`, rec.Body.String())
	})
	t.Run("not a pdf", func(t *testing.T) {
		rec := upload(hrToken, payslipFields(ana, 7, 2024), formFile{field: "file", filename: "holerite.pdf", content: []byte("plain text")})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), `"file"`)
	})
	t.Run("invalid month", func(t *testing.T) {
		rec := upload(hrToken, payslipFields(ana, 13, 2024), pdf)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), `"month"`)
	})
	t.Run("unknown employee", func(t *testing.T) {
		rec := upload(hrToken, payslipFields(user.User{ID: 999}, 7, 2024), pdf)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"error":"user not found"}`, rec.Body.String())
	})
	assert.Zero(t, storedPayslips(t), "rejected uploads leave no file behind")

	t.Run("success", func(t *testing.T) {
		rec := upload(hrToken, payslipFields(ana, 7, 2024), pdf)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var ps payslip.Payslip
		unmarshal(t, rec, &ps)
		assert.Equal(t, ana.ID, ps.UserID)
		assert.Equal(t, "Ana", ps.UserName)
		assert.Equal(t, 7, ps.Month)
		assert.Equal(t, 2024, ps.Year)
		assert.Regexp(t, `^/uploads/payslips/payslip-\d+-2024-07-[0-9a-f-]+\.pdf$`, ps.FileURL)
	})
	t.Run("duplicate period", func(t *testing.T) {
		rec := upload(hrToken, payslipFields(ana, 7, 2024), pdf)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.JSONEq(t, `{"error":"a payslip for this employee and period already exists"}`, rec.Body.String())
	})
	assert.Equal(t, 1, storedPayslips(t))
}

func Test_payslipApi_queryAndDownload(t *testing.T) {
	app := setup(t)

	ana := testutil.CreateUser(t, usrRepo, "Ana", "ana@infort.test", "secret", user.RoleEmployee, user.StatusActive)
	bruno := testutil.CreateUser(t, usrRepo, "Bruno", "bruno@infort.test", "secret", user.RoleEmployee, user.StatusActive)
	carlos := testutil.CreateUser(t, usrRepo, "Carlos", "carlos@infort.test", "secret", user.RoleHR, user.StatusActive)
	anaToken, brunoToken, hrToken := getToken(t, ana), getToken(t, bruno), getToken(t, carlos)

	upload := func(usr user.User, month, year int) payslip.Payslip {
		req, rec := newMultipartRequest(t, http.MethodPost, "/api/payslips", hrToken, payslipFields(usr, month, year),
			formFile{field: "file", filename: "holerite.pdf", content: pdfContent})
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var ps payslip.Payslip
		unmarshal(t, rec, &ps)
		return ps
	}
	jan24 := upload(ana, 1, 2024)
	dec23 := upload(ana, 12, 2023)
	jun24 := upload(ana, 6, 2024)
	brunos := upload(bruno, 6, 2024)

	tests := []struct {
		name    string
		path    string
		token   string
		wantIDs []int
	}{
		{name: "own, newest period first", path: "/api/payslips/me", token: anaToken, wantIDs: []int{jun24.ID, jan24.ID, dec23.ID}},
		{name: "me route", path: "/api/me/payslips", token: anaToken, wantIDs: []int{jun24.ID, jan24.ID, dec23.ID}},
		{name: "employee list is scoped", path: fmt.Sprintf("/api/payslips?userId=%d", ana.ID), token: brunoToken, wantIDs: []int{brunos.ID}},
		{name: "HR filters by employee", path: fmt.Sprintf("/api/payslips?userId=%d", bruno.ID), token: hrToken, wantIDs: []int{brunos.ID}},
		{name: "HR lists all", path: "/api/payslips", token: hrToken, wantIDs: []int{jun24.ID, brunos.ID, jan24.ID, dec23.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantIDs, ids(t, rec))
		})
	}

	for _, path := range []string{"/api/payslips/%d/download", "/api/downloads/payslip/%d"} {
		for _, token := range []string{anaToken, hrToken} {
			req, rec := newAuthRequest(http.MethodGet, fmt.Sprintf(path, jan24.ID), token)
			app.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
			assert.Equal(t, pdfContent, rec.Body.Bytes())
		}
	}

	runHTTPTests(t, app, []httpTest{
		{name: "Auth required", path: fmt.Sprintf("/api/payslips/%d/download", jan24.ID), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "not the owner", path: fmt.Sprintf("/api/payslips/%d/download", jan24.ID), token: brunoToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "unknown payslip", path: "/api/downloads/payslip/999", token: hrToken, wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "payslip not found"})},
	})

	t.Run("file gone", func(t *testing.T) {
		require.NoError(t, files.Remove(dec23.FileURL))
		req, rec := newAuthRequest(http.MethodGet, fmt.Sprintf("/api/downloads/payslip/%d", dec23.ID), anaToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "file not found"})}, rec)
	})
}
