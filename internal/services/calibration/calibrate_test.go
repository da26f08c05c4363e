package calibration

import "testing"

func TestCalibrateAnchors(t *testing.T) {
	cases := []struct {
		p    float64
		want float64
	}{
		{0, 0},
		{DefaultThreshold, 0.5},
		{1, 1},
	}
	for _, tc := range cases {
		if got := Calibrate(tc.p, DefaultThreshold); got != tc.want {
			t.Errorf("Calibrate(%v) = %v, want %v", tc.p, got, tc.want)
		}
	}
}

func TestCalibrateMonotonic(t *testing.T) {
	prev := Calibrate(0, DefaultThreshold)
	for i := 1; i <= 10000; i++ {
		p := float64(i) / 10000
		got := Calibrate(p, DefaultThreshold)
		if got < prev {
			t.Fatalf("Calibrate not monotonic at p=%v: %v < %v", p, got, prev)
		}
		if got < 0 || got > 1 {
			t.Fatalf("Calibrate(%v) = %v out of [0,1]", p, got)
		}
		prev = got
	}
}

func TestCalibrateBranches(t *testing.T) {
	if got, want := Calibrate(0.285, DefaultThreshold), 0.25; abs(got-want) > 1e-12 {
		t.Errorf("Calibrate(0.285) = %v, want %v", got, want)
	}
	if got, want := Calibrate(0.785, DefaultThreshold), 0.75; abs(got-want) > 1e-12 {
		t.Errorf("Calibrate(0.785) = %v, want %v", got, want)
	}
}

func TestCalibrateClampsInput(t *testing.T) {
	if got := Calibrate(-0.2, DefaultThreshold); got != 0 {
		t.Errorf("Calibrate(-0.2) = %v, want 0", got)
	}
	if got := Calibrate(1.3, DefaultThreshold); got != 1 {
		t.Errorf("Calibrate(1.3) = %v, want 1", got)
	}
}

func TestThresholdIsFiftyPercent(t *testing.T) {
	if got := ToPercent(Calibrate(0.57, DefaultThreshold)); got != 50.00 {
		t.Errorf("ToPercent(Calibrate(0.57)) = %v, want 50.00", got)
	}
	if got := ToPercent(0.61234); got != 61.23 {
		t.Errorf("ToPercent(0.61234) = %v, want 61.23", got)
	}
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
