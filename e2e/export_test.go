package e2e

import (
	"bytes"
	"encoding/csv"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// imageServer answers /good with a valid PNG and everything else with 404.
func imageServer(t *testing.T) *httptest.Server {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/good" {
			_, _ = w.Write(buf.Bytes())
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
}

func TestExport_NotFoundBeforeProcessing(t *testing.T) {
	ta := setupApp(t)

	resp, err := ta.app.Test(createUploadRequest(t, "products.csv", validCSV, ""), -1)
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	requestID, _ := parseJSON(t, resp)["request_id"].(string)

	// No products persisted yet, export misses.
	exportReq, _ := http.NewRequest(http.MethodGet, "/api/export/"+requestID, nil)
	exportResp, err := ta.app.Test(exportReq, -1)
	if err != nil {
		t.Fatalf("export request failed: %v", err)
	}
	assertStatus(t, exportResp, http.StatusNotFound)
}

func TestExport_EndToEnd(t *testing.T) {
	ta := setupApp(t)
	srv := imageServer(t)
	defer srv.Close()

	content := "S. No.,Product Name,Input Image Urls\n" +
		"1,Widget,\"" + srv.URL + "/good," + srv.URL + "/missing\"\n"
	resp, err := ta.app.Test(createUploadRequest(t, "products.csv", content, ""), -1)
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	assertStatus(t, resp, http.StatusAccepted)
	requestID, _ := parseJSON(t, resp)["request_id"].(string)

	ta.runQueued(t)

	statusReq, _ := http.NewRequest(http.MethodGet, "/api/status/"+requestID, nil)
	statusResp, err := ta.app.Test(statusReq, -1)
	if err != nil {
		t.Fatalf("status request failed: %v", err)
	}
	if got := parseJSON(t, statusResp)["status"]; got != "completed" {
		t.Fatalf("status = %v, want completed", got)
	}

	exportReq, _ := http.NewRequest(http.MethodGet, "/api/export/"+requestID, nil)
	exportResp, err := ta.app.Test(exportReq, -1)
	if err != nil {
		t.Fatalf("export request failed: %v", err)
	}
	assertStatus(t, exportResp, http.StatusOK)

	if ct := exportResp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q, want text/csv", ct)
	}
	if cd := exportResp.Header.Get("Content-Disposition"); !strings.Contains(cd, "output_"+requestID+".csv") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	body, _ := io.ReadAll(exportResp.Body)
	records, err := csv.NewReader(bytes.NewReader(body)).ReadAll()
	if err != nil {
		t.Fatalf("export is not valid csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want header + 1 row", len(records))
	}

	row := records[1]
	if row[0] != "1" || row[1] != "Widget" {
		t.Errorf("unexpected row: %v", row)
	}

	inputs := strings.Split(row[2], ",")
	if len(inputs) != 2 {
		t.Errorf("got %d input urls, want 2: %q", len(inputs), row[2])
	}

	// Exactly one output: the failed URL is skipped, not a gap.
	outputs := strings.Split(row[3], ",")
	if len(outputs) != 1 || !strings.HasPrefix(outputs[0], "/processed_images/"+requestID+"/Widget/") {
		t.Errorf("unexpected output urls: %q", row[3])
	}
}
