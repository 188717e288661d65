package groups

// Default returns the built-in group definitions covering the German freelance
// marketplace taxonomy (mixed German/English labels). Order matters: "crm"
// resolves to SAP before Marketing, "engineer" to Data before Engineering.
func Default() []Group {
	return []Group{
		{Name: "Development", Keywords: []string{
			"entwickl", "develop", "software", "web", "app", "mobile", "java",
			"python", "c#", "c++", ".net", "php", "javascript", "typescript",
			"react", "angular", "vue", "node", "full-stack", "frontend",
			"backend", "ios", "android", "swift", "kotlin", "flutter", "devops",
			"docker", "kubernetes", "aws", "azure", "cloud", "programm",
			"coding", "coder", "entwickler",
		}},
		{Name: "Data", Keywords: []string{
			"data", "analytics", "business intelligence", "tableau", "power bi",
			"sql", "database", "datenbank", "etl", "data warehouse",
			"big data", "hadoop", "spark", "data science", "machine learning",
			"artificial intelligence", "deep learning", "nlp", "statistik",
			"daten", "analyst", "scientist", "engineer",
		}},
		{Name: "Management", Keywords: []string{
			"project", "projekt", "management", "manager", "pmo", "scrum",
			"agile", "product owner", "scrum master", "kanban", "lean",
			"projektleiter", "projektmanager", "projektleitung", "führung",
			"lead", "leitung",
		}},
		{Name: "Design", Keywords: []string{
			"design", "ux", "ui", "user experience", "user interface",
			"graphic", "grafik", "visual", "creative", "kreativ",
			"illustration", "animation", "video", "media", "medien", "3d",
			"cad",
		}},
		{Name: "Infrastructure", Keywords: []string{
			"system", "network", "netzwerk", "security", "sicherheit", "admin",
			"administrator", "support", "helpdesk", "service desk",
			"infrastructure", "infrastruktur", "server", "hardware",
			"virtualization", "vmware", "hyper-v", "windows", "linux", "unix",
		}},
		{Name: "SAP", Keywords: []string{
			"sap", "abap", "s/4hana", "erp", "fiori", "hana", "crm",
		}},
		{Name: "Testing", Keywords: []string{
			"test", "qa", "quality assurance", "qualitätssicherung", "tester",
			"selenium", "cypress", "automation", "automatisierung",
		}},
		{Name: "Consulting", Keywords: []string{
			"consulting", "beratung", "berater", "consultant", "strategy",
			"strategie", "business", "geschäft", "process", "prozess",
			"optimization", "optimierung",
		}},
		{Name: "Marketing", Keywords: []string{
			"marketing", "seo", "sea", "sem", "social media", "content",
			"e-commerce", "ecommerce", "customer", "kunde",
		}},
		{Name: "Healthcare", Keywords: []string{
			"gesundheit", "health", "medical", "medizin", "arzt", "ärzte",
			"pflege", "pharma", "krankenhaus", "hospital", "klinik", "clinic",
		}},
		{Name: "Engineering", Keywords: []string{
			"ingenieur", "maschinenbau", "mechanical", "electrical",
			"elektronik", "elektro", "automotive", "automobil", "construction",
			"bau",
		}},
		{Name: "Finance", Keywords: []string{
			"finanz", "finance", "accounting", "buchhaltung", "controlling",
			"bank", "versicherung", "insurance", "steuer", "tax", "wirtschaft",
			"economic",
		}},
		{Name: "Legal", Keywords: []string{
			"legal", "recht", "law", "anwalt", "attorney", "compliance",
			"vertrag", "contract", "datenschutz", "privacy",
		}},
		{Name: "Location", Keywords: []string{
			"deutschland", "germany", "berlin", "hamburg", "münchen", "munich",
			"köln", "cologne", "frankfurt", "stuttgart", "düsseldorf",
			"dortmund", "essen", "bremen", "dresden", "leipzig", "hannover",
			"nürnberg", "bayern", "bavaria", "baden-württemberg", "hessen",
			"niedersachsen", "sachsen", "thüringen", "saarland",
		}},
		{Name: "Work Model", Keywords: []string{
			"remote", "vor ort", "hybrid", "homeoffice", "home office",
			"onsite", "on-site", "freiberuflich", "freelance",
		}},
	}
}
