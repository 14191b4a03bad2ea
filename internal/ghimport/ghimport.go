// Package ghimport creates backlog stories from GitHub issues.
package ghimport

import (
	"context"
	"fmt"
	"strings"

	"github.com/askelund/storyrank/internal/backlog"
	"github.com/askelund/storyrank/internal/models"
	"github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

// labelCategory is the category imported issue labels are filed under.
const labelCategory = "GitHub"

// issuesLister abstracts the GitHub issues API, enabling test mocks.
type issuesLister interface {
	ListByRepo(ctx context.Context, owner, repo string, opts *github.IssueListByRepoOptions) ([]*github.Issue, *github.Response, error)
}

// Importer pulls open issues from a repository into the backlog.
type Importer struct {
	issues issuesLister
	db     *gorm.DB
}

// New builds an Importer. An empty token means unauthenticated access,
// which works for public repositories at a lower rate limit.
func New(gdb *gorm.DB, token string) *Importer {
	ctx := context.Background()
	client := github.NewClient(nil)
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		client = github.NewClient(oauth2.NewClient(ctx, ts))
	}
	return &Importer{issues: client.Issues, db: gdb}
}

// Result summarizes an import run.
type Result struct {
	Created int
	Skipped int
}

// Import creates one story per open issue under an epic named after the
// repository. Pull requests are ignored. Re-imports are idempotent: an issue
// already recorded (by its reference in the workitems header) is skipped.
func (im *Importer) Import(ctx context.Context, owner, repo string) (*Result, error) {
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("ghimport: owner and repo are required")
	}

	var res Result
	opts := &github.IssueListByRepoOptions{
		State:       "open",
		ListOptions: github.ListOptions{PerPage: 100},
	}
	for {
		issues, resp, err := im.issues.ListByRepo(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("ghimport: list issues for %s/%s: %w", owner, repo, err)
		}
		for _, issue := range issues {
			if issue.IsPullRequest() {
				continue
			}
			created, err := im.importIssue(owner, repo, issue)
			if err != nil {
				return nil, err
			}
			if created {
				res.Created++
			} else {
				res.Skipped++
			}
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return &res, nil
}

// sourceRef is the marker recorded in a story's workitems header.
func sourceRef(owner, repo string, number int) string {
	return fmt.Sprintf("%s/%s#%d", owner, repo, number)
}

func (im *Importer) importIssue(owner, repo string, issue *github.Issue) (bool, error) {
	ref := sourceRef(owner, repo, issue.GetNumber())

	var count int64
	err := im.db.Model(&models.Story{}).
		Where("workitems LIKE ?", "Imported from "+ref+"%").
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("ghimport: check %s: %w", ref, err)
	}
	if count > 0 {
		return false, nil
	}

	workitems := "Imported from " + ref
	if body := strings.TrimSpace(issue.GetBody()); body != "" {
		workitems += "\n\n" + body
	}

	labelIDs, err := im.ensureLabels(issue.Labels)
	if err != nil {
		return false, err
	}

	_, err = backlog.Create(im.db, backlog.CreateOpts{
		EpicTitle: owner + "/" + repo,
		Title:     issue.GetTitle(),
		Workitems: workitems,
		LabelIDs:  labelIDs,
	})
	if err != nil {
		return false, fmt.Errorf("ghimport: create story for %s: %w", ref, err)
	}
	return true, nil
}

// ensureLabels maps issue labels to backlog labels under the GitHub category.
func (im *Importer) ensureLabels(issueLabels []*github.Label) ([]uint, error) {
	if len(issueLabels) == 0 {
		return nil, nil
	}
	category := models.LabelCategory{Name: labelCategory}
	if err := im.db.Where(models.LabelCategory{Name: labelCategory}).
		FirstOrCreate(&category).Error; err != nil {
		return nil, fmt.Errorf("ghimport: label category: %w", err)
	}

	ids := make([]uint, 0, len(issueLabels))
	for _, il := range issueLabels {
		name := il.GetName()
		if name == "" {
			continue
		}
		label := models.Label{CategoryID: category.ID, Name: name}
		if err := im.db.Where(models.Label{CategoryID: category.ID, Name: name}).
			FirstOrCreate(&label).Error; err != nil {
			return nil, fmt.Errorf("ghimport: label %q: %w", name, err)
		}
		ids = append(ids, label.ID)
	}
	return ids, nil
}
