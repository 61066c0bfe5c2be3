package request

import (
	"github.com/tidwall/gjson"
)

// ProjectOptions are the feature settings a project is created with.
type ProjectOptions struct {
	InitializeWithReadme                   bool
	DefaultBranch                          string
	IssuesEnabled                          bool
	MergeRequestsEnabled                   bool
	WikiEnabled                            bool
	SnippetsEnabled                        bool
	ContainerRegistryEnabled               bool
	LFSEnabled                             bool
	SharedRunnersEnabled                   bool
	OnlyAllowMergeIfPipelineSucceeds       bool
	OnlyAllowMergeIfAllDiscussionsResolved bool
	AllowMergeOnSkippedPipeline            bool
	RemoveSourceBranchAfterMerge           bool
	PrintingMergeRequestLinkEnabled        bool
	CIConfigPath                           string
}

// DefaultProjectOptions is what every option falls back to.
func DefaultProjectOptions() ProjectOptions {
	return ProjectOptions{
		InitializeWithReadme:                   false,
		DefaultBranch:                          "main",
		IssuesEnabled:                          true,
		MergeRequestsEnabled:                   true,
		WikiEnabled:                            true,
		SnippetsEnabled:                        true,
		ContainerRegistryEnabled:               true,
		LFSEnabled:                             false,
		SharedRunnersEnabled:                   true,
		OnlyAllowMergeIfPipelineSucceeds:       false,
		OnlyAllowMergeIfAllDiscussionsResolved: false,
		AllowMergeOnSkippedPipeline:            false,
		RemoveSourceBranchAfterMerge:           true,
		PrintingMergeRequestLinkEnabled:        true,
		CIConfigPath:                           ".gitlab-ci.yml",
	}
}

// ParseProjectOptions reads the options document leniently. A document that
// is not a JSON object is ignored as a whole; a key holding a value of the
// wrong type keeps its default.
func ParseProjectOptions(doc string) ProjectOptions {
	opts := DefaultProjectOptions()
	if doc == "" || !gjson.Valid(doc) {
		return opts
	}
	root := gjson.Parse(doc)
	if !root.IsObject() {
		return opts
	}

	boolOpt(root, "initialize_with_readme", &opts.InitializeWithReadme)
	stringOpt(root, "default_branch", &opts.DefaultBranch)
	boolOpt(root, "issues_enabled", &opts.IssuesEnabled)
	boolOpt(root, "merge_requests_enabled", &opts.MergeRequestsEnabled)
	boolOpt(root, "wiki_enabled", &opts.WikiEnabled)
	boolOpt(root, "snippets_enabled", &opts.SnippetsEnabled)
	boolOpt(root, "container_registry_enabled", &opts.ContainerRegistryEnabled)
	boolOpt(root, "lfs_enabled", &opts.LFSEnabled)
	boolOpt(root, "shared_runners_enabled", &opts.SharedRunnersEnabled)
	boolOpt(root, "only_allow_merge_if_pipeline_succeeds", &opts.OnlyAllowMergeIfPipelineSucceeds)
	boolOpt(root, "only_allow_merge_if_all_discussions_are_resolved", &opts.OnlyAllowMergeIfAllDiscussionsResolved)
	boolOpt(root, "allow_merge_on_skipped_pipeline", &opts.AllowMergeOnSkippedPipeline)
	boolOpt(root, "remove_source_branch_after_merge", &opts.RemoveSourceBranchAfterMerge)
	boolOpt(root, "printing_merge_request_link_enabled", &opts.PrintingMergeRequestLinkEnabled)
	stringOpt(root, "ci_config_path", &opts.CIConfigPath)
	return opts
}

func boolOpt(root gjson.Result, key string, dst *bool) {
	v := root.Get(key)
	if v.Type == gjson.True || v.Type == gjson.False {
		*dst = v.Bool()
	}
}

func stringOpt(root gjson.Result, key string, dst *string) {
	v := root.Get(key)
	if v.Type == gjson.String && v.Str != "" {
		*dst = v.Str
	}
}
