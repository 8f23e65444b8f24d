package completion_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/mock"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/pagewright/pkg/infra/completion"
)

func TestLLM_Complete(t *testing.T) {
	ctx := context.Background()

	t.Run("joins response texts", func(t *testing.T) {
		var captured []gollem.Input
		mockClient := &mock.LLMClientMock{
			NewSessionFunc: func(ctx context.Context, opts ...gollem.SessionOption) (gollem.Session, error) {
				return &mock.SessionMock{
					GenerateContentFunc: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
						captured = input
						return &gollem.Response{Texts: []string{"```filename: index.html\n", "<html></html>\n```"}}, nil
					},
				}, nil
			},
		}

		text, err := completion.NewLLM(mockClient).Complete(ctx, "build")
		gt.NoError(t, err)
		gt.Value(t, text).Equal("```filename: index.html\n<html></html>\n```")

		gt.Number(t, len(captured)).Equal(1)
		prompt, ok := captured[0].(gollem.Text)
		gt.True(t, ok)
		gt.Value(t, string(prompt)).Equal("build")
	})

	t.Run("empty response fails", func(t *testing.T) {
		mockClient := &mock.LLMClientMock{
			NewSessionFunc: func(ctx context.Context, opts ...gollem.SessionOption) (gollem.Session, error) {
				return &mock.SessionMock{
					GenerateContentFunc: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
						return &gollem.Response{}, nil
					},
				}, nil
			},
		}

		_, err := completion.NewLLM(mockClient).Complete(ctx, "build")
		gt.Error(t, err)
	})

	t.Run("session failure fails", func(t *testing.T) {
		mockClient := &mock.LLMClientMock{
			NewSessionFunc: func(ctx context.Context, opts ...gollem.SessionOption) (gollem.Session, error) {
				return nil, errors.New("quota")
			},
		}

		_, err := completion.NewLLM(mockClient).Complete(ctx, "build")
		gt.Error(t, err)
	})
}
