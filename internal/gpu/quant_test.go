package gpu

import (
	"math"
	"testing"

	"mtd/pkg/types"
)

func TestPlanQuantization(t *testing.T) {
	cases := []struct {
		name    string
		avail   int
		model   int
		cc      float64
		want    types.Quantization
		wantCPU bool
	}{
		{"ample memory fp32", 4096, 512, 8.6, types.QuantFP32, false},
		{"fp32 blocked below floor", 900, 256, 8.6, types.QuantFP16, false},
		{"half precision", 1100, 512, 8.6, types.QuantFP16, false},
		{"cc too low for device precision", 1100, 512, 5.0, types.QuantFP32, true},
		{"int8 tight fit", 600, 512, 7.0, types.QuantINT8, false},
		{"int8 needs cc 6.1", 600, 512, 5.3, types.QuantFP32, true},
		{"nothing fits", 256, 512, 8.6, types.QuantFP32, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			plan := PlanQuantization(c.avail, c.model, c.cc)
			if plan.Level != c.want || plan.OnCPU != c.wantCPU {
				t.Fatalf("plan = %+v", plan)
			}
		})
	}
}

func TestWERAndCER(t *testing.T) {
	if got := WER("the cat sat", "the cat sat"); got != 0 {
		t.Fatalf("identical WER = %v", got)
	}
	if got := WER("the cat sat", "the dog sat"); math.Abs(got-1.0/3) > 1e-9 {
		t.Fatalf("one substitution WER = %v", got)
	}
	if got := WER("", ""); got != 0 {
		t.Fatalf("empty WER = %v", got)
	}
	if got := WER("", "word"); got != 1 {
		t.Fatalf("empty reference WER = %v", got)
	}
	if got := CER("abc", "abd"); math.Abs(got-1.0/3) > 1e-9 {
		t.Fatalf("CER = %v", got)
	}
}

func TestAccuracyValidator(t *testing.T) {
	v := AccuracyValidator{}
	rep := v.Validate([]string{"the cat sat", "hello world"}, []string{"the cat sat", "hello world"})
	if !rep.Passed || rep.WER != 0 {
		t.Fatalf("report = %+v", rep)
	}
	rep = v.Validate([]string{"completely different output here"}, []string{"the cat sat on the mat"})
	if rep.Passed {
		t.Fatalf("garbage must fail: %+v", rep)
	}
	// Empty reference set passes by definition.
	if rep := v.Validate(nil, nil); !rep.Passed {
		t.Fatal("empty set must pass")
	}
}
