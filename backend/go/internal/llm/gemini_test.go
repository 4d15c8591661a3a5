package llm

import (
	"HealthMate/backend/go/internal/models"
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToGenaiParts_SkipsEmptyText(t *testing.T) {
	parts := toGenaiParts([]models.Content{
		models.NewTextContent(models.SpeakerUser, "extract a fact"),
		{Role: models.SpeakerUser, Parts: []*models.Part{{Text: ""}}},
	})
	require.Len(t, parts, 1)
	assert.Equal(t, genai.Text("extract a fact"), parts[0])
}

func TestFromGenaiResponse_KeepsTextParts(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Role: "model", Parts: []genai.Part{genai.Text("User is "), genai.Text("vegan")}}},
			{Content: nil},
		},
	}

	out := fromGenaiResponse(resp)
	require.NotNil(t, out)
	require.Len(t, out.Content, 1)
	assert.Equal(t, models.SpeakerModel, out.Content[0].Role)
	assert.Equal(t, "User is vegan", out.Text())

	assert.Nil(t, fromGenaiResponse(nil))
}

func TestCheckGenaiResponse(t *testing.T) {
	tests := []struct {
		name    string
		resp    *genai.GenerateContentResponse
		want    string
		wantErr bool
	}{
		{
			name: "answer",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
				{Content: &genai.Content{Parts: []genai.Part{genai.Text("Lives in Delhi")}}},
			}},
			want: "Lives in Delhi",
		},
		{name: "nil response", resp: nil, wantErr: true},
		{name: "no candidates", resp: &genai.GenerateContentResponse{}, wantErr: true},
		{
			name: "blank answer",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
				{Content: &genai.Content{Parts: []genai.Part{genai.Text("  \n")}}},
			}},
			wantErr: true,
		},
		{
			name: "no text parts",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
				{Content: &genai.Content{Parts: []genai.Part{genai.Blob{MIMEType: "image/png"}}}},
			}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := checkGenaiResponse(tt.resp)
			if tt.wantErr {
				var upstream *UpstreamError
				require.True(t, errors.As(err, &upstream))
				assert.Equal(t, providerGemini, upstream.Provider)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.Text())
		})
	}
}
