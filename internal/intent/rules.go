package intent

import (
	"regexp"
)

// rule pairs an intent with its compiled match expressions.
type rule struct {
	intent   Intent
	patterns []*regexp.Regexp
}

// ruleSpecs is the priority-ordered rule table. The first rule with at
// least one matching expression wins; rules below it are never consulted
// for that message. AgentTeamRequest sits above ProjectPlanning because
// messages like "spin up frontend agents for my project" mention a project
// but ask for agents.
//
// Adding support for a new phrasing is a data change here plus a test
// case, not a new code path.
var ruleSpecs = []struct {
	intent   Intent
	patterns []string
}{
	{AgentTeamRequest, []string{
		`\b(spin|set|stand)\s+up\b.{0,40}\bagents?\b`,
		`\bagent\s+team\b`,
		`\bteam\s+of\s+agents\b`,
		`\b(frontend|backend|scrum|agile|fullstack)\s+agents?\b`,
		`\bassemble\b.{0,40}\b(team|agents?)\b`,
	}},
	{ProjectPlanning, []string{
		`\b(build|create|make|develop|implement|scaffold|start)\b.{0,60}\b(app|application|project|dashboard|website|site|service|api|tool|prototype)\b`,
		`\bnew\s+project\b`,
		`\bplan(ning)?\b.{0,40}\bproject\b`,
		`\bi\s+(want|need|would\s+like)\s+to\s+build\b`,
		`\bproject\s+requirements?\b`,
	}},
	{StatusQuery, []string{
		`\b(status|progress)\b`,
		`\bhow\s+(is|are)\b.{0,40}\b(going|doing|coming\s+along)\b`,
		`\bwhat\s+(have|did)\s+you\b`,
		`\bwhere\s+(are\s+we|do\s+we\s+stand)\b`,
	}},
}

// vocabEntry maps a canonical slot value to the phrases that produce it.
// Aliases are matched on word boundaries against the normalized message.
type vocabEntry struct {
	canonical string
	aliases   []string
}

// frameworkVocab is the framework detection table. Canonical names are
// normalized lowercase identifiers.
var frameworkVocab = []vocabEntry{
	{"vue", []string{"vue", "vue.js", "vuejs", "nuxt", "nuxt.js"}},
	{"react", []string{"react", "react.js", "reactjs", "next.js", "nextjs"}},
	{"angular", []string{"angular", "angularjs"}},
	{"svelte", []string{"svelte", "sveltekit"}},
	{"django", []string{"django"}},
	{"flask", []string{"flask"}},
	{"fastapi", []string{"fastapi"}},
	{"rails", []string{"rails", "ruby on rails"}},
	{"spring", []string{"spring", "spring boot"}},
	{"express", []string{"express", "express.js", "expressjs"}},
	{"gin", []string{"gin"}},
	{"echo", []string{"echo"}},
	{"laravel", []string{"laravel"}},
}

// technologyVocab is the technology detection table.
var technologyVocab = []vocabEntry{
	{"python", []string{"python"}},
	{"go", []string{"go", "golang"}},
	{"javascript", []string{"javascript"}},
	{"typescript", []string{"typescript"}},
	{"rust", []string{"rust"}},
	{"java", []string{"java"}},
	{"docker", []string{"docker"}},
	{"kubernetes", []string{"kubernetes", "k8s"}},
	{"postgres", []string{"postgres", "postgresql"}},
	{"mysql", []string{"mysql"}},
	{"redis", []string{"redis"}},
	{"mongodb", []string{"mongodb", "mongo"}},
	{"qdrant", []string{"qdrant"}},
	{"ollama", []string{"ollama"}},
	{"graphql", []string{"graphql"}},
	{"grpc", []string{"grpc"}},
	{"websocket", []string{"websocket", "websockets"}},
}

// DefaultProjectType is the project_type applied by the renderer when no
// category keyword matched.
const DefaultProjectType = "general_application"

// projectTypeTable derives project_type from category keywords. Categories
// are checked in this order and the first category with a keyword hit wins;
// "dashboard for monitoring" is a dashboard, not a frontend, even though
// both keyword lists could match. This precedence is a deliberate policy
// choice and is locked in by tests.
var projectTypeTable = []struct {
	projectType string
	keywords    []string
}{
	{"dashboard", []string{"dashboard", "monitoring", "metrics", "admin panel"}},
	{"api", []string{"api", "backend", "rest", "microservice", "endpoint"}},
	{"frontend", []string{"frontend", "website", "web app", "webapp", "ui", "spa", "site"}},
	{"data", []string{"data pipeline", "analytics", "etl", "machine learning", "ml model"}},
	{"cli", []string{"cli", "command line", "command-line", "terminal"}},
	{"mobile", []string{"mobile", "ios", "android"}},
}

// ruleTable holds the compiled rules, built once at package init and
// read-only afterwards.
var ruleTable = compileRules()

// wordPatterns caches compiled word-boundary matchers per vocabulary alias.
var wordPatterns = compileVocabPatterns()

func compileRules() []rule {
	table := make([]rule, 0, len(ruleSpecs))
	for _, spec := range ruleSpecs {
		compiled := make([]*regexp.Regexp, 0, len(spec.patterns))
		for _, p := range spec.patterns {
			compiled = append(compiled, regexp.MustCompile(p))
		}
		table = append(table, rule{intent: spec.intent, patterns: compiled})
	}
	return table
}

func compileVocabPatterns() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp)
	add := func(alias string) {
		if _, ok := patterns[alias]; ok {
			return
		}
		patterns[alias] = regexp.MustCompile(`\b` + regexp.QuoteMeta(alias) + `\b`)
	}
	for _, entry := range frameworkVocab {
		for _, alias := range entry.aliases {
			add(alias)
		}
	}
	for _, entry := range technologyVocab {
		for _, alias := range entry.aliases {
			add(alias)
		}
	}
	for _, pt := range projectTypeTable {
		for _, kw := range pt.keywords {
			add(kw)
		}
	}
	return patterns
}

// matchesWord reports whether the alias appears in the normalized message
// on word boundaries.
func matchesWord(normalized, alias string) bool {
	p := wordPatterns[alias]
	return p != nil && p.MatchString(normalized)
}
