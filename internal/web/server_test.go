package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/daryltucker/wst-etc/internal/etc"
	"github.com/daryltucker/wst-etc/internal/model"
	"github.com/daryltucker/wst-etc/internal/output"
	"github.com/daryltucker/wst-etc/internal/params"
)

func TestMain(m *testing.M) {
	output.SetLogger(zap.NewNop().Sugar())
	goleak.VerifyTestMain(m)
}

func newTestServer(t *testing.T, calc etc.Calculator) http.Handler {
	t.Helper()
	if calc == nil {
		calc = etc.NewBuiltin()
	}
	s, err := New(calc, params.Defaults)
	require.NoError(t, err)
	return s.Handler()
}

// multipartRequest builds a browser-style submission; configs repeat the config field.
func multipartRequest(t *testing.T, path string, configs []string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, c := range configs {
		require.NoError(t, mw.WriteField(FieldConfig, c))
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type apiResponse struct {
	Params      map[string]model.Value `json:"params"`
	DebugOutput string                 `json:"debug_output"`
	PlotData    *model.PlotData        `json:"plot_data"`
	HasWarnings bool                   `json:"has_warnings"`
}

func decodeAPI(t *testing.T, rec *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var resp apiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestIndexRendersDefaults(t *testing.T) {
	h := newTestServer(t, nil)
	rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, `name="DIT" value="600"`)
	assert.Contains(t, body, `name="SKYCALC" value="True"`)
	assert.Contains(t, body, `name="MOON" value=""`)
	assert.Contains(t, body, `value="ifs-blue"`)
	assert.Contains(t, body, `value="dit_ndit" checked`)
	assert.NotContains(t, body, "debug-output")
}

func TestSubmitRendersTraceAndParams(t *testing.T) {
	h := newTestServer(t, nil)
	rec := serve(h, multipartRequest(t, "/", []string{"ifs-blue"}, map[string]string{
		"compute_mode": "dit_ndit",
		"DIT":          "300",
		"SEE":          "1.2",
	}))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Configuration 1: IFS - BLUE")
	assert.Contains(t, body, "DIT: 300 s")
	assert.Contains(t, body, `name="DIT" value="300"`)
	assert.Contains(t, body, `name="SEE" value="1.2"`)
	assert.Contains(t, body, `value="ifs-blue" checked`)
	assert.Contains(t, body, "Computation completed successfully")
	assert.Contains(t, body, "snr-plot")
}

func TestSubmitWithoutConfiguration(t *testing.T) {
	h := newTestServer(t, nil)
	rec := serve(h, multipartRequest(t, "/", nil, map[string]string{"compute_mode": "dit_snr"}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), params.NoConfigurationMessage)
	assert.NotContains(t, rec.Body.String(), "snr-plot")
	// chosen mode is kept for re-display
	assert.Contains(t, rec.Body.String(), `value="dit_snr" checked`)
}

func TestEmptySelectionWinsOverUnknownMode(t *testing.T) {
	h := newTestServer(t, nil)
	resp := decodeAPI(t, serve(h, multipartRequest(t, "/api/compute", nil, map[string]string{"compute_mode": "snr_only"})))

	assert.Equal(t, params.NoConfigurationMessage, resp.DebugOutput)
	assert.NotContains(t, resp.DebugOutput, "CRITICAL ERROR")
	assert.True(t, resp.HasWarnings)
	assert.Nil(t, resp.PlotData)
	assert.True(t, model.StringValue("dit_ndit").Equal(resp.Params["compute_mode"]))
}

func TestAPICompute(t *testing.T) {
	h := newTestServer(t, nil)
	resp := decodeAPI(t, serve(h, multipartRequest(t, "/api/compute", []string{"ifs-blue", "moslr-green"}, map[string]string{
		"compute_mode": "dit_snr",
		"OBJ_MAG":      "21",
		"Lam_Ref":      "5500",
		"COADD_WL":     "2",
	})))

	assert.True(t, model.StringValue("dit_snr").Equal(resp.Params["compute_mode"]))
	assert.True(t, model.IntValue(21).Equal(resp.Params["OBJ_MAG"]))
	assert.True(t, model.IntValue(600).Equal(resp.Params["DIT"]))

	require.NotNil(t, resp.PlotData, resp.DebugOutput)
	assert.Equal(t, model.ModeDITSNR, resp.PlotData.ComputeMode)
	require.Len(t, resp.PlotData.Summary, 2)
	assert.Equal(t, "IFS BLUE", resp.PlotData.Summary[0].Config)
	assert.Equal(t, "MOSLR GREEN", resp.PlotData.Summary[1].Config)
	require.Len(t, resp.PlotData.Traces, 4)
	assert.Equal(t, "IFS BLUE (SNR x spectral coadding [2 pixels])", resp.PlotData.Traces[1].Name)
	assert.True(t, resp.PlotData.Traces[1].Secondary)
	assert.Contains(t, resp.DebugOutput, "→ Required NDIT:")
}

func TestAPIComputeURLEncoded(t *testing.T) {
	h := newTestServer(t, nil)
	form := url.Values{"config": {"ifs-red"}, "compute_mode": {"ndit_snr"}, "OBJ_MAG": {"18"}, "Lam_Ref": {"8000"}}
	req := httptest.NewRequest(http.MethodPost, "/api/compute", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp := decodeAPI(t, serve(h, req))
	require.NotNil(t, resp.PlotData, resp.DebugOutput)
	assert.Equal(t, model.KindFloat, resp.PlotData.Summary[0].DIT.Kind())
	assert.Contains(t, resp.DebugOutput, "Mode: NDIT & SNR")
}

func TestAPIComputeFailureDoesNotBlockSibling(t *testing.T) {
	h := newTestServer(t, nil)
	resp := decodeAPI(t, serve(h, multipartRequest(t, "/api/compute", []string{"ifs-U", "ifs-red"}, nil)))

	assert.True(t, resp.HasWarnings)
	assert.Contains(t, resp.DebugOutput, "ERROR:")
	assert.Contains(t, resp.DebugOutput, "Computation completed with warnings/errors (see above)")
	require.NotNil(t, resp.PlotData)
	require.Len(t, resp.PlotData.Summary, 1)
	assert.Equal(t, "IFS RED", resp.PlotData.Summary[0].Config)
}

func TestAPIComputeRequestLevelErrors(t *testing.T) {
	h := newTestServer(t, nil)
	tests := map[string]struct {
		configs []string
		fields  map[string]string
	}{
		"unknown compute mode": {configs: []string{"ifs-blue"}, fields: map[string]string{"compute_mode": "snr_only"}},
		"malformed selection":  {configs: []string{"ifs"}},
		"too many parts":       {configs: []string{"ifs-blue-2"}},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			resp := decodeAPI(t, serve(h, multipartRequest(t, "/api/compute", tc.configs, tc.fields)))
			assert.True(t, strings.HasPrefix(resp.DebugOutput, "CRITICAL ERROR: "), resp.DebugOutput)
			assert.Contains(t, resp.DebugOutput, "Full traceback:")
			assert.Nil(t, resp.PlotData)
		})
	}
}

func TestPlotPNG(t *testing.T) {
	h := newTestServer(t, nil)
	rec := serve(h, multipartRequest(t, "/plot.png", []string{"moshr-V"}, map[string]string{"OBJ_MAG": "18"}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	_, err := png.Decode(rec.Body)
	assert.NoError(t, err)
}

func TestPlotPNGWithoutTraces(t *testing.T) {
	h := newTestServer(t, nil)
	rec := serve(h, multipartRequest(t, "/plot.png", nil, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, rec.Body.Len())
}

func TestFaviconAndRouting(t *testing.T) {
	h := newTestServer(t, nil)
	assert.Equal(t, http.StatusNoContent, serve(h, httptest.NewRequest(http.MethodGet, "/favicon.ico", nil)).Code)
	assert.Equal(t, http.StatusNotFound, serve(h, httptest.NewRequest(http.MethodGet, "/missing", nil)).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, serve(h, httptest.NewRequest(http.MethodGet, "/api/compute", nil)).Code)
}

type sickCalc struct {
	etc.Calculator
}

func (sickCalc) Health(context.Context) error { return errors.New("connection refused") }

func TestHealthz(t *testing.T) {
	rec := serve(newTestServer(t, nil), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = serve(newTestServer(t, sickCalc{etc.NewBuiltin()}), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestRequestID(t *testing.T) {
	h := newTestServer(t, nil)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Len(t, rec.Header().Get(HeaderRequestID), 36)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	rec = serve(h, req)
	assert.Equal(t, "abc-123", rec.Header().Get(HeaderRequestID))
}

func TestRequestIDInContext(t *testing.T) {
	var seen string
	h := withRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "req-1")
	serve(h, req)
	assert.Equal(t, "req-1", seen)
	assert.Empty(t, RequestID(context.Background()))
}

func TestNewWithTemplates(t *testing.T) {
	fsys := fstest.MapFS{
		"templates/index.html": {Data: []byte(`<p>{{len .Pairs}} pairs, {{len .Modes}} modes</p>`)},
	}
	s, err := NewWithTemplates(etc.NewBuiltin(), params.Defaults, fsys)
	require.NoError(t, err)

	rec := serve(s.Handler(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<p>9 pairs, 3 modes</p>", rec.Body.String())

	_, err = NewWithTemplates(etc.NewBuiltin(), params.Defaults, fstest.MapFS{})
	assert.Error(t, err)
}
