package bytesize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "bytes", input: "512B", want: 512},
		{name: "kilobytes", input: "100KB", want: 100 * 1024},
		{name: "megabytes", input: "500MB", want: 500 * 1024 * 1024},
		{name: "gigabytes", input: "4GB", want: 4 * 1024 * 1024 * 1024},
		{name: "terabytes", input: "1TB", want: int64(1024) * 1024 * 1024 * 1024},
		{name: "short unit", input: "700m", want: 700 * 1024 * 1024},
		{name: "fractional", input: "1.5GB", want: int64(1.5 * 1024 * 1024 * 1024)},
		{name: "mixed case with spaces", input: " 512 Mb ", want: 512 * 1024 * 1024},
		{name: "empty", input: "", wantErr: true},
		{name: "missing unit", input: "512", wantErr: true},
		{name: "missing value", input: "MB", wantErr: true},
		{name: "not a number", input: "abcMB", wantErr: true},
		{name: "zero", input: "0MB", wantErr: true},
		{name: "negative", input: "-1GB", wantErr: true},
		{name: "below one byte", input: "0.5B", wantErr: true},
		{name: "tiny fraction of a unit", input: "0.0001KB", wantErr: true},
		{name: "nan", input: "nanMB", wantErr: true},
		{name: "infinity", input: "InfGB", wantErr: true},
		{name: "overflow", input: "99999999TB", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitFlag(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "", want: ""},
		{input: "500MB", want: "500m"},
		{input: "4GB", want: "4g"},
		{input: "1024MB", want: "1g"},
		{input: "1.5GB", want: "1536m"},
		{input: "100KB", want: "100k"},
		{input: "1000B", want: "1000b"},
		{input: "lots", wantErr: true},
		{input: "0.5B", wantErr: true},
		{input: "0.0001KB", wantErr: true},
		{input: "nanMB", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := SplitFlag(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
