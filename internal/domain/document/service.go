package document

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"firepm/internal/domain/media"
	"firepm/internal/domain/project"
)

// MediaSaver is the slice of the media service contract generation needs.
type MediaSaver interface {
	SaveMedia(ctx context.Context, in media.SaveInput) (*media.FileView, error)
}

// ProjectStore resolves the project a contract is generated for.
type ProjectStore interface {
	GetByID(ctx context.Context, id int64) (*project.Project, error)
}

type Service struct {
	projects ProjectStore
	saver    MediaSaver
	renderer Renderer
}

func NewService(projects ProjectStore, saver MediaSaver, renderer Renderer) *Service {
	return &Service{projects: projects, saver: saver, renderer: renderer}
}

// ContractInput describes a contract generation request. Revision is
// the externally assigned contract revision number; it becomes the
// stored file's version verbatim.
type ContractInput struct {
	ProjectID int64
	Revision  int
	Terms     string
	UserID    int64
}

var contractTmpl = template.Must(template.New("contract").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Service Contract</title></head>
<body>
<h1>Fire Protection Service Contract</h1>
<p>Revision {{.Revision}} &mdash; {{.Date}}</p>
<h2>Project</h2>
<p>{{.ProjectName}}<br>{{.ProjectAddress}}</p>
<h2>Terms</h2>
<p>{{.Terms}}</p>
</body>
</html>`))

type contractData struct {
	Revision       int
	Date           string
	ProjectName    string
	ProjectAddress string
	Terms          string
}

// GenerateContract renders the contract PDF for a project and stores it
// under the project's contracts location at the requested revision.
func (s *Service) GenerateContract(ctx context.Context, in ContractInput) (*media.FileView, error) {
	p, err := s.projects.GetByID(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	data := contractData{
		Revision:       in.Revision,
		Date:           time.Now().Format("2006-01-02"),
		ProjectName:    p.Name,
		ProjectAddress: p.Address,
		Terms:          in.Terms,
	}
	if err := contractTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render contract html: %w", err)
	}

	pdf, err := s.renderer.RenderPDF(ctx, buf.String())
	if err != nil {
		return nil, fmt.Errorf("render contract pdf: %w", err)
	}

	revision := in.Revision
	return s.saver.SaveMedia(ctx, media.SaveInput{
		RawData:             pdf,
		FileName:            fmt.Sprintf("contract-rev%d.pdf", in.Revision),
		FileType:            "application/pdf",
		ProjectID:           &in.ProjectID,
		TargetLocation:      media.TargetContracts,
		Title:               fmt.Sprintf("Service contract, revision %d", in.Revision),
		CustomVersionNumber: &revision,
		UserID:              in.UserID,
	})
}
