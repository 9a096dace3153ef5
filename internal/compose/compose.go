// Package compose renders docker-compose files from deploy requests and
// builds the remote command that applies them.
package compose

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Service describes one service in a deploy request.
type Service struct {
	Image       string            `json:"image" yaml:"image"`
	Command     string            `json:"command,omitempty" yaml:"command,omitempty"`
	Ports       []string          `json:"ports,omitempty" yaml:"ports,omitempty"`
	Environment map[string]string `json:"environment,omitempty" yaml:"environment,omitempty"`
	Volumes     []string          `json:"volumes,omitempty" yaml:"volumes,omitempty"`
	Restart     string            `json:"restart,omitempty" yaml:"restart,omitempty"`
}

// Project is a named set of services.
type Project struct {
	Name     string             `json:"name"`
	Services map[string]Service `json:"services"`
}

// Validate checks the minimum a project needs to be deployable.
func (p *Project) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("project name is required")
	}
	if strings.ContainsAny(p.Name, "/\\ \t'\"") {
		return fmt.Errorf("project name %q contains invalid characters", p.Name)
	}
	if len(p.Services) == 0 {
		return fmt.Errorf("at least one service is required")
	}
	for name, svc := range p.Services {
		if svc.Image == "" {
			return fmt.Errorf("service %q: image is required", name)
		}
	}
	return nil
}

// Render marshals the project to docker-compose YAML.
func (p *Project) Render() ([]byte, error) {
	doc := struct {
		Services map[string]Service `yaml:"services"`
	}{Services: p.Services}
	return yaml.Marshal(doc)
}

// DeployCommand builds the shell command that writes the compose file under
// baseDir/<name> on the remote host and brings the project up detached.
func (p *Project) DeployCommand(baseDir string, rendered []byte) string {
	dir := fmt.Sprintf("%s/%s", strings.TrimRight(baseDir, "/"), p.Name)
	return fmt.Sprintf(
		"mkdir -p %s && cat > %s/docker-compose.yml <<'LIGHTDOCK_EOF'\n%s\nLIGHTDOCK_EOF\ndocker compose -f %s/docker-compose.yml -p %s up -d",
		dir, dir, strings.TrimRight(string(rendered), "\n"), dir, p.Name,
	)
}
