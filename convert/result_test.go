package convert

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultWriteJSON(t *testing.T) {
	tests := []struct {
		name   string
		result Result
		want   string
	}{
		{
			name: "success",
			result: Result{
				Success:        true,
				PageCount:      3,
				PairCount:      2,
				ImagesInserted: 1,
				OutputPath:     "/out/결과.pptx",
				RunID:          "ignored",
				State:          Done,
			},
			want: `{"success":true,"page_count":3,"pair_count":2,"images_inserted":1,"output_path":"/out/결과.pptx"}` + "\n",
		},
		{
			name: "failure",
			result: Result{
				Error:     "columns <Start Word> & <End Word> missing",
				Err:       errors.New("x"),
				PageCount: 7,
				State:     Failed,
			},
			want: `{"success":false,"error":"columns <Start Word> & <End Word> missing"}` + "\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, tt.result.WriteJSON(&buf))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}
