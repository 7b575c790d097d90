package motion

import "testing"

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()

	if p.Width != 500 {
		t.Errorf("Width = %d, want 500", p.Width)
	}
	if p.DiffThreshold != 25 {
		t.Errorf("DiffThreshold = %d, want 25", p.DiffThreshold)
	}
	if p.DilateIterations != 2 {
		t.Errorf("DilateIterations = %d, want 2", p.DilateIterations)
	}
	if p.MinArea != 1500 {
		t.Errorf("MinArea = %d, want 1500", p.MinArea)
	}
	if err := p.Validate(); err != nil {
		t.Errorf("default params should be valid: %v", err)
	}
}

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *Params)
		wantErr bool
	}{
		{name: "defaults", mutate: func(p *Params) {}, wantErr: false},
		{name: "zero min area", mutate: func(p *Params) { p.MinArea = 0 }, wantErr: false},
		{name: "no dilation", mutate: func(p *Params) { p.DilateIterations = 0 }, wantErr: false},
		{name: "negative min area", mutate: func(p *Params) { p.MinArea = -1 }, wantErr: true},
		{name: "zero width", mutate: func(p *Params) { p.Width = 0 }, wantErr: true},
		{name: "even blur", mutate: func(p *Params) { p.BlurSize = 20 }, wantErr: true},
		{name: "threshold zero", mutate: func(p *Params) { p.DiffThreshold = 0 }, wantErr: true},
		{name: "threshold too high", mutate: func(p *Params) { p.DiffThreshold = 256 }, wantErr: true},
		{name: "negative dilation", mutate: func(p *Params) { p.DilateIterations = -2 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)

			err := p.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	if got := Classify(nil); got != Unoccupied {
		t.Errorf("Classify(nil) = %v, want Unoccupied", got)
	}
	if got := Classify([]Region{{Area: 1500}}); got != Occupied {
		t.Errorf("Classify(one region) = %v, want Occupied", got)
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{Unoccupied, "Unoccupied"},
		{Occupied, "Occupied"},
		{State(7), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
