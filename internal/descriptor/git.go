package descriptor

import (
	"fmt"
	"time"

	"github.com/go-git/go-git/v5"

	"github.com/cmmoran/gatecp/internal/spec"
)

// GitDeployment stamps deployment metadata from the HEAD commit of the
// repository containing path. Timestamps are RFC 3339 UTC. A zero now leaves
// DeployedAt unset so the descriptor only changes with the commit.
func GitDeployment(path string, now time.Time) (*spec.DeploymentInfo, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open git repository at %s: %w", path, err)
	}
	ref, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}
	commit, err := repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("read HEAD commit: %w", err)
	}
	info := &spec.DeploymentInfo{
		CommitSHA: ref.Hash().String(),
		CommitAt:  commit.Committer.When.UTC().Format(time.RFC3339),
	}
	if !now.IsZero() {
		info.DeployedAt = now.UTC().Format(time.RFC3339)
	}
	return info, nil
}
