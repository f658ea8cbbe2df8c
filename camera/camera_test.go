package camera

import (
	"math"
	"testing"
)

func TestNew(t *testing.T) {
	cam := New(1280, 720, 4096, 4096)

	if cam.X != 2048 || cam.Y != 2048 {
		t.Errorf("expected camera at (2048, 2048), got (%f, %f)", cam.X, cam.Y)
	}
	if cam.Zoom != 1.0 {
		t.Errorf("expected zoom 1.0, got %f", cam.Zoom)
	}
}

func TestWorldToScreenCentered(t *testing.T) {
	cam := New(1280, 720, 4096, 4096)

	sx, sy := cam.WorldToScreen(2048, 2048)
	if math.Abs(float64(sx-640)) > 0.01 || math.Abs(float64(sy-360)) > 0.01 {
		t.Errorf("expected screen center (640, 360), got (%f, %f)", sx, sy)
	}
}

func TestScreenToWorldRoundtrip(t *testing.T) {
	cam := New(1280, 720, 4096, 4096)
	cam.SetZoom(2.0)

	testCases := []struct{ sx, sy float32 }{
		{640, 360},
		{100, 100},
		{1200, 600},
	}

	for _, tc := range testCases {
		wx, wy := cam.ScreenToWorld(tc.sx, tc.sy)
		sx, sy := cam.WorldToScreen(wx, wy)
		if math.Abs(float64(sx-tc.sx)) > 0.01 || math.Abs(float64(sy-tc.sy)) > 0.01 {
			t.Errorf("roundtrip failed: (%f,%f) -> (%f,%f) -> (%f,%f)",
				tc.sx, tc.sy, wx, wy, sx, sy)
		}
	}
}

func TestPanClampsToWorld(t *testing.T) {
	cam := New(1280, 720, 4096, 4096)

	cam.Pan(-1e9, -1e9)
	minX, minY, _, _ := cam.VisibleWorldBounds()
	if minX < -0.01 || minY < -0.01 {
		t.Errorf("visible area escaped world bounds: min (%f, %f)", minX, minY)
	}

	cam.Pan(1e9, 1e9)
	_, _, maxX, maxY := cam.VisibleWorldBounds()
	if maxX > 4096.01 || maxY > 4096.01 {
		t.Errorf("visible area escaped world bounds: max (%f, %f)", maxX, maxY)
	}
}

func TestZoomClamped(t *testing.T) {
	cam := New(1280, 720, 4096, 4096)

	cam.SetZoom(100)
	if cam.Zoom != cam.MaxZoom {
		t.Errorf("expected zoom clamped to %f, got %f", cam.MaxZoom, cam.Zoom)
	}
	cam.SetZoom(0.001)
	if cam.Zoom != cam.MinZoom {
		t.Errorf("expected zoom clamped to %f, got %f", cam.MinZoom, cam.Zoom)
	}
}

func TestIsVisible(t *testing.T) {
	cam := New(1280, 720, 4096, 4096)

	if !cam.IsVisible(2048, 2048, 10) {
		t.Error("center must be visible")
	}
	if cam.IsVisible(100, 100, 10) {
		t.Error("far corner must not be visible at 1x zoom")
	}
}

func TestUniformBlock(t *testing.T) {
	cam := New(1280, 720, 4096, 4096)
	u := cam.UniformBlock(4242)

	if u.ActiveCount != 4242 {
		t.Errorf("active count = %f, want 4242", u.ActiveCount)
	}
	if u.Zoom != cam.Zoom || u.ViewportW != 1280 || u.ViewportH != 720 {
		t.Errorf("uniform mismatch: %+v", u)
	}
	minX, minY, _, _ := cam.VisibleWorldBounds()
	if u.OriginX != minX || u.OriginY != minY {
		t.Errorf("origin mismatch: %+v", u)
	}
}
