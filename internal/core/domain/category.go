package domain

// Category is a catalog bucket. The set is fixed and seeded at migration
// time; WorkflowCount is denormalised and recomputed after every sync.
type Category struct {
	ID            string
	Name          string
	NameCN        string
	Slug          string
	Description   string
	Icon          string
	Color         string
	SortOrder     int
	WorkflowCount int
}

// DefaultCategoryID is returned by classification when no rule matches.
const DefaultCategoryID = "automation"

// Categories returns the fixed category set in display order.
func Categories() []Category {
	return []Category{
		{ID: "mcp", Name: "MCP Server", NameCN: "MCP服务", Slug: "mcp",
			Description: "Model Context Protocol integrations for connecting workflows to external tools",
			Icon:        "Plug", Color: "purple", SortOrder: 1},
		{ID: "agents", Name: "AI Agents", NameCN: "AI智能体", Slug: "agents",
			Description: "Autonomous AI agents with reasoning and tool-use capabilities",
			Icon:        "Bot", Color: "blue", SortOrder: 2},
		{ID: "rag", Name: "RAG Pipelines", NameCN: "RAG检索", Slug: "rag",
			Description: "Retrieval-Augmented Generation workflows for knowledge-based AI",
			Icon:        "Database", Color: "green", SortOrder: 3},
		{ID: "chatbots", Name: "Chatbots", NameCN: "聊天机器人", Slug: "chatbots",
			Description: "Conversational AI interfaces and customer support bots",
			Icon:        "MessageCircle", Color: "cyan", SortOrder: 4},
		{ID: "content", Name: "Content Creation", NameCN: "内容创作", Slug: "content",
			Description: "AI-powered writing, copywriting, and content generation",
			Icon:        "PenTool", Color: "orange", SortOrder: 5},
		{ID: "translation", Name: "Translation", NameCN: "翻译", Slug: "translation",
			Description: "Multi-language translation and localisation workflows",
			Icon:        "Languages", Color: "pink", SortOrder: 6},
		{ID: "data", Name: "Data Analysis", NameCN: "数据分析", Slug: "data",
			Description: "Data processing, visualisation, and analytical workflows",
			Icon:        "BarChart", Color: "indigo", SortOrder: 7},
		{ID: "automation", Name: "Automation", NameCN: "自动化", Slug: "automation",
			Description: "Task automation and business process workflows",
			Icon:        "Zap", Color: "yellow", SortOrder: 8},
		{ID: "development", Name: "Development", NameCN: "开发工具", Slug: "development",
			Description: "Code generation, review, and developer productivity tools",
			Icon:        "Code", Color: "slate", SortOrder: 9},
	}
}
