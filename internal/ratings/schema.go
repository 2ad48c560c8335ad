package ratings

// Config is the root of the rating templates YAML file:
//
//	templates:
//	  - name: Movie
//	    ratings:
//	      - name: Story
//	        label: Story telling
//	        min: -5
//	        max: 5
type Config struct {
	Templates []TemplateConfig `yaml:"templates"`
}

// TemplateConfig is a named collection of rating definitions.
type TemplateConfig struct {
	Name        string             `yaml:"name"`
	Description string             `yaml:"description,omitempty"`
	Ratings     []DefinitionConfig `yaml:"ratings"`
}

// DefinitionConfig defines one rating.
type DefinitionConfig struct {
	Name  string `yaml:"name"`
	Label string `yaml:"label,omitempty"`
	Min   *int   `yaml:"min,omitempty"`
	Max   *int   `yaml:"max,omitempty"`
}
