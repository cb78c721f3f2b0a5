package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorderCounts(t *testing.T) {
	r := New()
	r.Operation("add_modifiers", time.Now(), nil)
	r.Operation("apply_attribute", time.Now(), errors.New("boom"))
	r.ModifierCreated("BEVEL")
	r.ModifierCreated("BEVEL")
	r.ModifiersReordered(2)
	r.EdgesBaked("fillet_weighted", 3)
	r.AssetImport("BP_AutoUV", "missing")
	r.SliderSync("from_user")

	if got := testutil.ToFloat64(r.operations.WithLabelValues("apply_attribute", "error")); got != 1 {
		t.Fatalf("apply errors = %v", got)
	}
	if got := testutil.ToFloat64(r.modifiersCreated.WithLabelValues("BEVEL")); got != 2 {
		t.Fatalf("bevels created = %v", got)
	}
	if got := testutil.ToFloat64(r.modifiersMoved); got != 2 {
		t.Fatalf("reordered = %v", got)
	}
	if got := testutil.ToFloat64(r.bakedEdges.WithLabelValues("fillet_weighted")); got != 3 {
		t.Fatalf("baked = %v", got)
	}
}

func TestHandlerExposesRegistry(t *testing.T) {
	r := New()
	r.AssetImport("BP_SubD", "ok")
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `blockout_asset_imports_total{group="BP_SubD",status="ok"} 1`) {
		t.Fatalf("metrics output missing counter:\n%s", body)
	}
}

func TestNilRecorderIsSafe(t *testing.T) {
	var r *Recorder
	r.Operation("x", time.Now(), nil)
	r.ModifierCreated("WELD")
	r.SliderSync("from_selection")
}
