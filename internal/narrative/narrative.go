// Package narrative holds the explanatory text shown alongside the charts.
package narrative

// Title is the dashboard heading.
const Title = "Traumatic Brain Injury in the USA"

// Tagline lists what the dashboard explores.
var Tagline = []string{
	"Yearly trends",
	"Injury mechanisms",
	"Severity distributions",
}

// Section is a navigable part of the dashboard.
type Section struct {
	Slug  string
	Title string
}

// Sections lists the dashboard sections in navigation order.
var Sections = []Section{
	{Slug: "introduction", Title: "Introduction"},
	{Slug: "explore", Title: "Data Exploration"},
	{Slug: "visualizations", Title: "Visualizations"},
	{Slug: "conclusions", Title: "Conclusions"},
}

// Introduction is the opening text of the dashboard.
var Introduction = []string{
	"Every March, we observe Brain Injury Awareness Month, an initiative launched about 30 years ago. " +
		"This annual event aims to inform the public about how frequently brain injuries occur and to highlight " +
		"the support required by those affected, including their families.",
	"Traumatic brain injuries (TBIs) can result from various head traumas, such as impacts, sudden movements, " +
		"or penetrating wounds. The consequences of a TBI may be temporary or permanent, potentially altering an " +
		"individual's cognitive functions, sensory perceptions, communication abilities, or emotional responses.",
}

// Note is a labelled group of bullet points under a chart.
type Note struct {
	Heading string
	Points  []Point
}

// Point is one bullet, with an optional bold lead.
type Point struct {
	Lead string
	Text string
}

// ChartNotes maps chart names to their commentary.
var ChartNotes = map[string][]Note{
	"mechanism-rates": {{
		Heading: "Insights",
		Points: []Point{
			{Lead: "Unintentional Falls", Text: "have the highest spread of rates, indicating their dominance across multiple cases."},
			{Lead: "Motor Vehicle Crashes and Unintentionally Struck by or Against an Object", Text: "show moderate variability."},
			{Lead: "Self-Harm and Assault", Text: "have consistently low rates with minimal spread."},
		},
	}},
	"year-types": {{
		Heading: "Observations",
		Points: []Point{
			{Lead: "Unintentional Falls:", Text: "Their proportion has steadily increased over the years, dominating the total contribution in later years."},
			{Lead: "Motor Vehicle Crashes:", Text: "Once a major contributor, their proportion has slightly decreased over time."},
			{Lead: "Unintentionally Struck by or Against an Object:", Text: "Shows a gradual increase but remains secondary compared to falls and crashes."},
			{Lead: "Other Mechanisms:", Text: "Intentional self-harm and assault consistently contribute smaller proportions."},
		},
	}},
	"service-share": {{
		Heading: "Observations",
		Points: []Point{
			{Lead: "Marines:", Text: "Highest proportion of diagnosed injuries relative to recruitment numbers, indicating higher risk or exposure."},
			{Lead: "Army:", Text: "While the Army has the most diagnosed injuries in absolute numbers, its proportion is moderated due to a larger recruitment base."},
			{Lead: "Navy and Air Force:", Text: "Lower proportions, reflecting relatively fewer diagnosed injuries per 1,000 recruits."},
		},
	}},
	"diagnosed-scatter": {
		{
			Heading: "Observations",
			Points: []Point{
				{Lead: "Severity Distribution:", Text: "Mild injuries dominate across all years, reflected in the larger clusters. Other severities (Moderate, Severe, Penetrating) show fewer cases but consistent presence."},
				{Lead: "Trends Over Time:", Text: "Diagnosed cases are relatively stable for all severities, with some fluctuations."},
				{Lead: "Service Branch Influence:", Text: "The Army contributes the most across all severities, followed by other branches with smaller case counts."},
			},
		},
		{
			Heading: "Insights",
			Points: []Point{
				{Lead: "Mild injuries", Text: "are the primary driver of diagnosed cases, indicating the need for targeted interventions."},
				{Text: "Stable trends suggest consistent reporting, though branch-level or severity-level changes might warrant further study."},
			},
		},
	},
}

// KeyFindings summarizes the analysis.
var KeyFindings = []Point{
	{Lead: "Unintentional Falls", Text: "are the dominant mechanism for civilian TBIs."},
	{Lead: "Army", Text: "reports the highest number of military TBIs, primarily mild cases."},
	{Text: "Normalized comparisons highlight distinct patterns between civilian and military populations."},
}

// FutureWork lists follow-up analyses.
var FutureWork = []string{
	"Explore regional differences.",
	"Analyze intervention impacts on TBI trends.",
}

// NotesFor returns the commentary for a chart, or nil.
func NotesFor(chart string) []Note {
	return ChartNotes[chart]
}

// String renders a point as plain text.
func (p Point) String() string {
	if p.Lead == "" {
		return p.Text
	}
	return p.Lead + " " + p.Text
}
