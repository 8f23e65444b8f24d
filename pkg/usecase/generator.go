package usecase

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"text/template"
	"unicode/utf8"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/pagewright/pkg/domain/interfaces"
	"github.com/m-mizutani/pagewright/pkg/domain/model"
	"github.com/m-mizutani/pagewright/pkg/domain/types"
	"github.com/m-mizutani/pagewright/pkg/utils/extract"
)

//go:embed prompts/generate.md
var generatePromptTemplate string

type generator struct {
	completion interfaces.CompletionClient
	prompt     *template.Template
}

// NewGenerator creates a Generator backed by a text-completion client
func NewGenerator(completion interfaces.CompletionClient) (interfaces.Generator, error) {
	tmpl, err := template.New("generate").Parse(generatePromptTemplate)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse generate prompt template")
	}

	return &generator{
		completion: completion,
		prompt:     tmpl,
	}, nil
}

type promptAttachment struct {
	Name   string
	Text   string
	Binary bool
	Size   int
}

// Generate asks the completion backend for the application files of req
func (g *generator) Generate(ctx context.Context, req *model.DeploymentRequest) (model.FileSet, error) {
	logger := ctxlog.From(ctx)

	attachments := make([]promptAttachment, 0, len(req.Attachments))
	for _, a := range req.Attachments {
		data, err := a.Decode()
		if err != nil {
			return nil, goerr.Wrap(err, "failed to decode attachment", goerr.T(types.ErrTagDecode), goerr.V("name", a.Name))
		}
		attachments = append(attachments, toPromptAttachment(a.Name, data))
	}

	prompt, err := g.buildPrompt(req, attachments)
	if err != nil {
		return nil, err
	}

	logger.Debug("Calling completion backend",
		"prompt_length", len(prompt),
		"attachment_count", len(attachments),
	)

	text, err := g.completion.Complete(ctx, prompt)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate content",
			goerr.T(types.ErrTagGeneration))
	}

	files := extract.Files(text)

	logger.Info("Parsed completion response",
		"response_length", len(text),
		"files", files.Names(),
	)

	if !files.Has(model.FileIndex) {
		return nil, goerr.New("model output has no index.html",
			goerr.T(types.ErrTagGeneration),
			goerr.V("files", files.Names()),
			goerr.V("response_length", len(text)))
	}

	if !files.Has(model.FileReadme) {
		files[model.FileReadme] = fmt.Sprintf("# %s\n\n%s", req.Task, req.Brief)
	}

	return files, nil
}

func (g *generator) buildPrompt(req *model.DeploymentRequest, attachments []promptAttachment) (string, error) {
	var buf bytes.Buffer
	if err := g.prompt.Execute(&buf, map[string]any{
		"Brief":       req.Brief,
		"Checks":      req.Checks,
		"Attachments": attachments,
	}); err != nil {
		return "", goerr.Wrap(err, "failed to execute generate prompt template")
	}
	return buf.String(), nil
}

func toPromptAttachment(name string, data []byte) promptAttachment {
	if utf8.Valid(data) {
		return promptAttachment{Name: name, Text: string(data), Size: len(data)}
	}
	return promptAttachment{Name: name, Binary: true, Size: len(data)}
}
