package frontmatter

import (
	"os"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/modbuilder/internal/foundation/errors"
)

// GroupFile is the per-directory settings file name.
const GroupFile = "group.yaml"

// GroupSettings configures the container built for a directory.
type GroupSettings struct {
	Name      string `yaml:"name"`
	Slug      string `yaml:"slug"`
	Order     *int   `yaml:"order"`
	Parent    string `yaml:"parent"`
	IncludeIn string `yaml:"include-in"`
	// CopyFiles defaults to true.
	CopyFiles  *bool   `yaml:"copy-files"`
	PageBreaks *string `yaml:"pagebreaks"`
	Footer     string  `yaml:"footer"`
}

// ShouldCopyFiles reports the effective copy-files flag.
func (g GroupSettings) ShouldCopyFiles() bool {
	return g.CopyFiles == nil || *g.CopyFiles
}

// LoadGroup reads path. A missing file yields zero settings and found=false.
func LoadGroup(path string) (settings GroupSettings, found bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, false, nil
		}
		return settings, false, errors.WrapError(err, errors.CategoryResource, "cannot read group settings").
			Fatal().
			WithContext("file", path).
			Build()
	}
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return settings, false, errors.WrapError(err, errors.CategoryStructural, "invalid group settings").
			Fatal().
			WithContext("file", path).
			Build()
	}
	return settings, true, nil
}
