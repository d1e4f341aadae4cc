package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderSuccess(t *testing.T) {
	result := RenderSuccess("<p>hi</p>")

	assert.Equal(t, ResultStatusSuccess, result.Status)
	assert.Equal(t, "<p>hi</p>", result.Output)
	assert.True(t, result.IsSuccess())
	assert.NoError(t, result.Err())
}

func TestRenderFailure(t *testing.T) {
	detail := NewErrorDetail(ErrorTypeCompile, "unexpected token").WithCode("line_3")
	result := RenderFailure(detail)

	assert.Equal(t, ResultStatusFailure, result.Status)
	assert.False(t, result.IsSuccess())
	assert.Empty(t, result.Output)
	require.Error(t, result.Err())
	assert.Equal(t, "compile: unexpected token [line_3]", result.Err().Error())
}

func TestErrorDetail_Error(t *testing.T) {
	tests := []struct {
		name   string
		detail *ErrorDetail
		want   string
	}{
		{name: "nil", detail: nil, want: ""},
		{name: "internal hides type", detail: NewErrorDetail(ErrorTypeInternal, "boom"), want: "boom"},
		{name: "typed", detail: NewErrorDetail(ErrorTypeDecode, "bad json"), want: "decode: bad json"},
		{
			name: "wrapped",
			detail: &ErrorDetail{
				Type:    ErrorTypeEvaluate,
				Message: "filter failed",
				Wrapped: NewErrorDetail(ErrorTypeInternal, "converter"),
			},
			want: "evaluate: filter failed: converter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.detail.Error())
		})
	}
}
