package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"firepm/internal/domain/project"
)

// ProjectStore is the slice of the project repository the assistant
// tools need.
type ProjectStore interface {
	SearchByName(ctx context.Context, name string) ([]*project.Project, error)
	Create(ctx context.Context, p *project.Project) error
}

type Service struct {
	projects ProjectStore
}

func NewService(projects ProjectStore) *Service {
	return &Service{projects: projects}
}

// HandleToolCall dispatches one assistant tool call and returns the
// plain-text result read back to the caller.
func (s *Service) HandleToolCall(ctx context.Context, name string, args json.RawMessage) (string, error) {
	switch name {
	case "lookupProject":
		return s.lookupProject(ctx, args)
	case "createLead":
		return s.createLead(ctx, args)
	default:
		return "", fmt.Errorf("unknown tool %q", name)
	}
}

func (s *Service) lookupProject(ctx context.Context, args json.RawMessage) (string, error) {
	var in struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("decode lookupProject arguments: %w", err)
	}
	if strings.TrimSpace(in.Name) == "" {
		return "", fmt.Errorf("lookupProject requires a name")
	}

	projects, err := s.projects.SearchByName(ctx, in.Name)
	if err != nil {
		return "", fmt.Errorf("search projects: %w", err)
	}
	if len(projects) == 0 {
		return fmt.Sprintf("No projects found matching %q.", in.Name), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d project(s):", len(projects))
	for _, p := range projects {
		fmt.Fprintf(&b, " #%d %s (%s, status %d);", p.ID, p.Name, p.Address, p.Status)
	}
	return strings.TrimSuffix(b.String(), ";"), nil
}

func (s *Service) createLead(ctx context.Context, args json.RawMessage) (string, error) {
	var in struct {
		Name    string `json:"name"`
		Address string `json:"address"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("decode createLead arguments: %w", err)
	}
	if strings.TrimSpace(in.Name) == "" {
		return "", fmt.Errorf("createLead requires a name")
	}

	p := &project.Project{
		Name:    in.Name,
		Address: in.Address,
		Status:  project.StatusLead,
	}
	if err := s.projects.Create(ctx, p); err != nil {
		return "", fmt.Errorf("create lead: %w", err)
	}
	return fmt.Sprintf("Created lead #%d for %s.", p.ID, p.Name), nil
}
