package apiversion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/target/repo-gateway/internal/errors"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		want     string
		wantCode apperrors.ErrorCode
	}{
		{name: "current", raw: "2019-10-01", want: "2019-10-01"},
		{name: "older supported", raw: "2017-03-08", want: "2017-03-08"},
		{name: "trims whitespace", raw: " 2019-02-01 ", want: "2019-02-01"},
		{name: "missing", raw: "", wantCode: apperrors.ErrCodeMissingVersion},
		{name: "retired", raw: "2016-09-22_Preview", wantCode: apperrors.ErrCodeRetiredVersion},
		{name: "retired any case", raw: "2016-09-22_preview", wantCode: apperrors.ErrCodeRetiredVersion},
		{name: "unsupported", raw: "2030-01-01", wantCode: apperrors.ErrCodeUnsupportedVersion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Validate(tt.raw)
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, apperrors.GetCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidate_RetiredNamesCurrent(t *testing.T) {
	_, err := Validate(Retired)
	require.Error(t, err)
	assert.Contains(t, err.Error(), Current())
	assert.Equal(t, "2019-10-01", Current())
}

func TestIsClientPath(t *testing.T) {
	assert.True(t, IsClientPath("/client"))
	assert.True(t, IsClientPath("/client/acme/repos"))
	assert.False(t, IsClientPath("/clients/acme"))
	assert.False(t, IsClientPath("/acme/repos"))
}

func TestSupported_IsCopy(t *testing.T) {
	s := Supported()
	s[0] = "mutated"
	assert.Equal(t, "2019-10-01", Current())
}
