package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQRPayload(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    ScanTarget
		wantErr error
	}{
		{
			name: "Structured URL payload",
			raw:  "https://qr.vks.la/p?type=info&siteId=VKS-A-001&locId=L7&cpName=3",
			want: ScanTarget{SiteRef: "VKS-A-001", LocationID: "L7", Checkpoint: "3"},
		},
		{
			name: "Structured payload without scheme",
			raw:  "type=info&siteId=VKS-A-002&cpName=1",
			want: ScanTarget{SiteRef: "VKS-A-002", Checkpoint: "1"},
		},
		{
			name: "Structured payload falls back to locId",
			raw:  "?type=info&locId=L9",
			want: ScanTarget{SiteRef: "L9", LocationID: "L9"},
		},
		{
			name: "Legacy pipe payload",
			raw:  "VKS|VKS-A-001|3",
			want: ScanTarget{SiteRef: "VKS-A-001", Checkpoint: "3"},
		},
		{
			name: "Legacy payload without point",
			raw:  "VKS|VKS-A-001",
			want: ScanTarget{SiteRef: "VKS-A-001"},
		},
		{
			name:    "Legacy payload with wrong prefix",
			raw:     "ABC|VKS-A-001|3",
			wantErr: ErrInvalidPayload,
		},
		{
			name:    "Legacy payload missing site",
			raw:     "VKS|",
			wantErr: ErrInvalidPayload,
		},
		{
			name:    "Empty payload",
			raw:     "",
			wantErr: ErrEmptyPayload,
		},
		{
			name:    "Whitespace only",
			raw:     "   ",
			wantErr: ErrEmptyPayload,
		},
		{
			name:    "Unrecognized shape",
			raw:     "hello world",
			wantErr: ErrInvalidPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseQRPayload(tt.raw)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
