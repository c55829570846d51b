package service

import (
	"fmt"
	"strings"

	"github.com/cloo-solutions/sophia/internal/domain"
)

// Template is a pre-built workflow for a common project type. Templates
// skip model-driven generation entirely and produce a fixed task structure.
type Template struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	WorkflowName string        `json:"workflow_name"`
	Tasks        []domain.Task `json:"tasks"`
}

// TemplateSummary is the listing view of a template.
type TemplateSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	NumTasks    int    `json:"num_tasks"`
}

// TemplateIDSoftwareDevelopment is the fallback suggestion when no keyword group matches.
const TemplateIDSoftwareDevelopment = "software_development"

// templateOrder fixes listing order independent of map iteration.
var templateOrder = []string{
	TemplateIDSoftwareDevelopment,
	"marketing_campaign",
	"research_project",
	"event_planning",
	"business_strategy",
}

var templateRegistry = map[string]Template{
	TemplateIDSoftwareDevelopment: softwareDevelopmentTemplate,
	"marketing_campaign":          marketingCampaignTemplate,
	"research_project":            researchProjectTemplate,
	"event_planning":              eventPlanningTemplate,
	"business_strategy":           businessStrategyTemplate,
}

// ListTemplates returns summaries for every registered template in a stable order.
func ListTemplates() []TemplateSummary {
	summaries := make([]TemplateSummary, 0, len(templateOrder))
	for _, id := range templateOrder {
		t := templateRegistry[id]
		summaries = append(summaries, TemplateSummary{
			ID:          t.ID,
			Name:        t.Name,
			Description: t.Description,
			NumTasks:    len(t.Tasks),
		})
	}
	return summaries
}

// GetTemplate returns the template registered under id.
func GetTemplate(id string) (Template, error) {
	t, ok := templateRegistry[id]
	if !ok {
		return Template{}, domain.ErrTemplateNotFound
	}
	return t, nil
}

// ApplyToContext produces a runnable workflow from a template, enriching each
// task prompt with the project specification text. The registry copy is never
// mutated.
func (t Template) ApplyToContext(projectContext string) domain.Workflow {
	tasks := make([]domain.Task, 0, len(t.Tasks))
	for _, task := range t.Tasks {
		task.Prompt = fmt.Sprintf(`%s

PROJECT CONTEXT:
%s

Base your analysis and recommendations specifically on the project context provided above.`, task.Prompt, projectContext)
		tasks = append(tasks, task)
	}
	return domain.Workflow{
		WorkflowName: t.WorkflowName,
		Tasks:        tasks,
	}
}

// templateKeywords drive SuggestTemplate. Groups are checked in registry
// order and the first hit wins.
var templateKeywords = []struct {
	id    string
	words []string
}{
	{TemplateIDSoftwareDevelopment, []string{"software", "application", "system", "development", "api", "database"}},
	{"marketing_campaign", []string{"marketing", "campaign", "advertising", "promotion", "brand"}},
	{"research_project", []string{"research", "study", "analysis", "hypothesis", "methodology"}},
	{"event_planning", []string{"event", "conference", "meeting", "venue", "attendee"}},
	{"business_strategy", []string{"strategy", "business", "growth", "market", "competitive"}},
}

// SuggestTemplate picks the template whose keyword group first matches the
// project text. Falls back to software development, the most versatile fit.
func SuggestTemplate(projectText string) string {
	lower := strings.ToLower(projectText)
	for _, group := range templateKeywords {
		for _, word := range group.words {
			if strings.Contains(lower, word) {
				return group.id
			}
		}
	}
	return TemplateIDSoftwareDevelopment
}

var softwareDevelopmentTemplate = Template{
	ID:           TemplateIDSoftwareDevelopment,
	Name:         "Software Development Project",
	Description:  "Comprehensive planning for software development projects",
	WorkflowName: "Software Development Planning Workflow",
	Tasks: []domain.Task{
		{
			TaskID: "1",
			Name:   "requirements_analysis",
			Prompt: `Analyze the project specification and create a comprehensive requirements document.

Include:
- Functional requirements (what the system must do)
- Non-functional requirements (performance, security, scalability)
- User stories or use cases
- Acceptance criteria
- Technical constraints

Format the output as a structured requirements document.`,
			OutputFormat: domain.FormatMarkdown,
		},
		{
			TaskID: "2",
			Name:   "architecture_design",
			Prompt: `Based on the requirements and project specification, design the system architecture.

Include:
- High-level system architecture
- Technology stack recommendations
- Data models and database schema
- API design and interfaces
- Security architecture
- Deployment architecture

Format as a technical design document.`,
			OutputFormat: domain.FormatMarkdown,
		},
		{
			TaskID: "3",
			Name:   "work_breakdown_structure",
			Prompt: `Create a Work Breakdown Structure (WBS) for the software project.

Break down the project into:
- Major phases/modules
- Features and sub-features
- Development tasks
- Testing and QA tasks
- Deployment tasks
- Documentation tasks

Organize hierarchically with clear parent-child relationships.`,
			OutputFormat: domain.FormatMarkdown,
		},
		{
			TaskID: "4",
			Name:   "task_list_with_dependencies",
			Prompt: `Generate a detailed task list with dependencies and estimates.

For each task include:
- Task name and description
- Dependencies (which tasks must complete first)
- Estimated effort (hours or days)
- Assigned role/skill level
- Priority (Critical, High, Medium, Low)

Format as CSV with columns: TaskID, TaskName, Description, Dependencies, Effort, Role, Priority`,
			OutputFormat: domain.FormatCSV,
		},
		{
			TaskID: "5",
			Name:   "sprint_planning",
			Prompt: `Organize tasks into sprint/iteration plan.

Create a sprint plan with:
- Sprint duration (typically 2 weeks)
- Sprint goals
- Tasks allocated to each sprint
- Capacity planning
- Risk mitigation per sprint

Consider team velocity and dependencies.`,
			OutputFormat: domain.FormatMarkdown,
		},
		{
			TaskID: "6",
			Name:   "resource_allocation",
			Prompt: `Create a resource allocation plan.

Include:
- Team composition (roles and count)
- Role responsibilities
- Skills required vs. available
- Training needs
- External resources or contractors
- Budget allocation by resource type

Format as CSV with columns: Role, Count, Skills, Responsibilities, Cost`,
			OutputFormat: domain.FormatCSV,
		},
		{
			TaskID: "7",
			Name:   "risk_assessment",
			Prompt: `Conduct a comprehensive risk assessment.

Identify and analyze:
- Technical risks
- Resource risks
- Schedule risks
- Security risks
- Integration risks

For each risk include:
- Description
- Impact (High/Medium/Low)
- Probability (High/Medium/Low)
- Mitigation strategy
- Contingency plan

Format as a risk register.`,
			OutputFormat: domain.FormatMarkdown,
		},
	},
}

var marketingCampaignTemplate = Template{
	ID:           "marketing_campaign",
	Name:         "Marketing Campaign",
	Description:  "Strategic planning for marketing campaigns",
	WorkflowName: "Marketing Campaign Planning Workflow",
	Tasks: []domain.Task{
		{
			TaskID: "1",
			Name:   "campaign_strategy",
			Prompt: `Develop a comprehensive marketing campaign strategy.

Include:
- Campaign objectives and KPIs
- Target audience definition
- Value proposition
- Key messaging
- Brand positioning
- Campaign timeline

Format as a strategic brief.`,
			OutputFormat: domain.FormatMarkdown,
		},
		{
			TaskID: "2",
			Name:   "channel_mix",
			Prompt: `Define the marketing channel mix and tactics.

For each channel include:
- Channel selection rationale
- Specific tactics (ads, content, events, etc.)
- Budget allocation
- Expected reach and engagement
- Success metrics

Channels to consider: Digital ads, Social media, Email, Content marketing, Events, PR, Partnerships

Format as CSV: Channel, Tactics, Budget, Reach, Metrics`,
			OutputFormat: domain.FormatCSV,
		},
		{
			TaskID: "3",
			Name:   "content_calendar",
			Prompt: `Create a detailed content calendar.

Include:
- Content pieces (blogs, videos, social posts, emails)
- Publishing schedule
- Content themes/topics
- Distribution channels
- Content owner/creator
- Status tracking

Format as CSV: Date, ContentType, Topic, Channel, Owner, Status`,
			OutputFormat: domain.FormatCSV,
		},
		{
			TaskID: "4",
			Name:   "budget_breakdown",
			Prompt: `Break down the campaign budget.

Include:
- Channel-specific budgets
- Creative production costs
- Technology/tools costs
- Personnel costs
- Contingency buffer

Calculate ROI projections based on expected outcomes.

Format as CSV: Category, SubCategory, Cost, Percentage`,
			OutputFormat: domain.FormatCSV,
		},
		{
			TaskID: "5",
			Name:   "measurement_plan",
			Prompt: `Create a comprehensive measurement and analytics plan.

Define:
- KPIs for each channel and overall campaign
- Tracking mechanisms
- Reporting frequency
- Dashboard requirements
- A/B testing plan
- Attribution model

Include both leading and lagging indicators.`,
			OutputFormat: domain.FormatMarkdown,
		},
	},
}

var researchProjectTemplate = Template{
	ID:           "research_project",
	Name:         "Research Project",
	Description:  "Academic or business research project planning",
	WorkflowName: "Research Project Planning Workflow",
	Tasks: []domain.Task{
		{
			TaskID: "1",
			Name:   "research_design",
			Prompt: `Design the research methodology and approach.

Include:
- Research questions and hypotheses
- Research methodology (qualitative, quantitative, mixed)
- Data collection methods
- Sampling strategy
- Data analysis approach
- Validity and reliability considerations

Format as a research design document.`,
			OutputFormat: domain.FormatMarkdown,
		},
		{
			TaskID: "2",
			Name:   "literature_review_plan",
			Prompt: `Create a literature review plan.

Define:
- Key topics and themes
- Search strategy and databases
- Inclusion/exclusion criteria
- Analysis framework
- Expected number of sources
- Timeline for completion

Organize by research themes.`,
			OutputFormat: domain.FormatMarkdown,
		},
		{
			TaskID: "3",
			Name:   "research_phases",
			Prompt: `Break down research into phases with deliverables.

Typical phases:
- Planning and design
- Literature review
- Data collection
- Data analysis
- Results interpretation
- Report writing
- Peer review and revision

For each phase include timeline, activities, and deliverables.

Format as CSV: Phase, StartDate, EndDate, Activities, Deliverables`,
			OutputFormat: domain.FormatCSV,
		},
		{
			TaskID: "4",
			Name:   "resource_requirements",
			Prompt: `Identify resource requirements for the research.

Include:
- Personnel (researchers, assistants, statisticians)
- Equipment and facilities
- Software/tools
- Data sources and access
- Budget by category

Format as CSV: ResourceType, Description, Quantity, Cost`,
			OutputFormat: domain.FormatCSV,
		},
		{
			TaskID: "5",
			Name:   "ethical_considerations",
			Prompt: `Document ethical considerations and compliance requirements.

Address:
- Human subjects protection (if applicable)
- Data privacy and confidentiality
- Informed consent procedures
- IRB/ethics committee requirements
- Data management and retention
- Conflict of interest disclosures

Format as an ethics checklist.`,
			OutputFormat: domain.FormatMarkdown,
		},
	},
}

var eventPlanningTemplate = Template{
	ID:           "event_planning",
	Name:         "Event Planning",
	Description:  "Planning for conferences, meetings, or events",
	WorkflowName: "Event Planning Workflow",
	Tasks: []domain.Task{
		{
			TaskID: "1",
			Name:   "event_concept",
			Prompt: `Define the event concept and objectives.

Include:
- Event purpose and goals
- Target audience
- Event format (in-person, virtual, hybrid)
- Theme and branding
- Success metrics
- High-level timeline

Format as an event brief.`,
			OutputFormat: domain.FormatMarkdown,
		},
		{
			TaskID: "2",
			Name:   "venue_logistics",
			Prompt: `Plan venue and logistics requirements.

Detail:
- Venue specifications (size, layout, AV equipment)
- Catering requirements
- Transportation and parking
- Accommodation for attendees
- Technology needs (WiFi, streaming, registration)
- Accessibility requirements

Format as a logistics checklist.`,
			OutputFormat: domain.FormatMarkdown,
		},
		{
			TaskID: "3",
			Name:   "task_timeline",
			Prompt: `Create a detailed task timeline leading up to the event.

Break down by time period (6 months out, 3 months, 1 month, 1 week, day-of):
- Key milestones
- Tasks with owners
- Deadlines
- Dependencies

Format as CSV: Deadline, Task, Owner, Status, Dependencies`,
			OutputFormat: domain.FormatCSV,
		},
		{
			TaskID: "4",
			Name:   "budget_planning",
			Prompt: `Create comprehensive event budget.

Include:
- Venue and facility costs
- Catering and beverage
- Audio/visual and technology
- Marketing and promotion
- Speaker fees and travel
- Staff and contractors
- Contingency (10-15%)

Calculate per-attendee costs and break-even point.

Format as CSV: Category, Item, Quantity, UnitCost, TotalCost`,
			OutputFormat: domain.FormatCSV,
		},
		{
			TaskID: "5",
			Name:   "marketing_promotion",
			Prompt: `Develop event marketing and promotion plan.

Include:
- Registration page and process
- Email campaigns timeline
- Social media strategy
- Partnership and sponsorship outreach
- PR and media relations
- Post-event follow-up

Define promotional phases: Save-the-date, Early bird, Regular, Last call.`,
			OutputFormat: domain.FormatMarkdown,
		},
	},
}

var businessStrategyTemplate = Template{
	ID:           "business_strategy",
	Name:         "Business Strategy",
	Description:  "Strategic business planning and analysis",
	WorkflowName: "Business Strategy Planning Workflow",
	Tasks: []domain.Task{
		{
			TaskID: "1",
			Name:   "situation_analysis",
			Prompt: `Conduct comprehensive situation analysis.

Perform:
- SWOT analysis (Strengths, Weaknesses, Opportunities, Threats)
- Market analysis (size, growth, trends)
- Competitive landscape
- Customer analysis
- Internal capabilities assessment

Format as a structured analysis document.`,
			OutputFormat: domain.FormatMarkdown,
		},
		{
			TaskID: "2",
			Name:   "strategic_objectives",
			Prompt: `Define strategic objectives and goals.

Create:
- Vision and mission alignment
- 3-5 year strategic objectives
- SMART goals (Specific, Measurable, Achievable, Relevant, Time-bound)
- Key results and KPIs
- Success criteria

Prioritize objectives by impact and feasibility.`,
			OutputFormat: domain.FormatMarkdown,
		},
		{
			TaskID: "3",
			Name:   "strategic_initiatives",
			Prompt: `Identify strategic initiatives to achieve objectives.

For each initiative detail:
- Description and rationale
- Expected outcomes
- Resource requirements
- Timeline
- Risks and dependencies
- Success metrics

Format as CSV: Initiative, Description, Owner, Timeline, Budget, KPIs`,
			OutputFormat: domain.FormatCSV,
		},
		{
			TaskID: "4",
			Name:   "implementation_roadmap",
			Prompt: `Create implementation roadmap.

Organize initiatives into phases:
- Quick wins (0-3 months)
- Short-term (3-12 months)
- Medium-term (1-2 years)
- Long-term (2-5 years)

Show dependencies and sequencing.
Identify resource allocation across phases.`,
			OutputFormat: domain.FormatMarkdown,
		},
		{
			TaskID: "5",
			Name:   "financial_projections",
			Prompt: `Develop financial projections and business case.

Include:
- Revenue projections
- Cost structure
- Investment requirements
- Cash flow analysis
- Break-even analysis
- ROI calculations
- Sensitivity analysis

Format as CSV: Year, Revenue, Costs, Profit, CumulativeCashFlow`,
			OutputFormat: domain.FormatCSV,
		},
	},
}
