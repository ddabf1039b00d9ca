package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fwdaemon/devregistry/pkg/core"
	"github.com/fwdaemon/devregistry/pkg/registry"
)

func TestHandleDevicesListsAll(t *testing.T) {
	reg := registry.New()
	defer reg.Close()
	reg.Add(core.NewSimpleDevice("d1", "g1"))
	reg.Add(core.NewSimpleDevice("d2"))

	s := New(DefaultConfig(), reg)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/devices")
	if err != nil {
		t.Fatalf("GET /devices error = %v", err)
	}
	defer resp.Body.Close()

	var views []deviceViewT
	if err := json.NewDecoder(resp.Body).Decode(&views); err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("views = %v, want 2 devices", views)
	}
}

func TestHandleDeviceByIDNotFoundReturns404(t *testing.T) {
	reg := registry.New()
	defer reg.Close()

	s := New(DefaultConfig(), reg)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/devices/id/missing")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestHandleDeviceByIDAmbiguousReturns409(t *testing.T) {
	reg := registry.New()
	defer reg.Close()
	reg.Add(core.NewSimpleDevice("usb-1"))
	reg.Add(core.NewSimpleDevice("usb-2"))

	s := New(DefaultConfig(), reg)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/devices/id/usb-")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}
}

func TestHandlePendingReflectsScheduledRemoval(t *testing.T) {
	reg := registry.New()
	defer reg.Close()

	d := core.NewSimpleDevice("d1")
	d.SetRemoveDelay(time.Minute)
	reg.Add(d)
	reg.Remove(d)

	s := New(DefaultConfig(), reg)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/pending")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	defer resp.Body.Close()

	var pending []map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&pending); err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending = %v, want 1 entry", pending)
	}
}
