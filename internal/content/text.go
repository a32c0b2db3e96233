// Package content holds the static copy of the marketing pages and the
// default records the store is seeded with on first start.
package content

import "github.com/Zachkp/portfolio/internal/domain"

var (
	Headline = `Software engineer building fast, useful things for the web.`

	AboutMe = `I love building software that's both useful and fun, and I'm always curious about how things work behind the scenes.
Most of my projects start with a simple idea and turn into a chance to learn something new, whether it's exploring a
different language, experimenting with tools, or solving tricky problems.
When I'm not coding, I'm usually hunting bugs on bounty platforms or chasing down a new challenge outside the screen.`

	PrivacyNotice = `Visits are counted anonymously. The address and browser of a visitor are reduced to a short
non-reversible fingerprint, raw IP addresses are never stored, and requests sending "Do Not Track" are not counted.
Visit data is deleted after the retention period.`
)

// Projects are the projects inserted into an empty database.
func Projects() []*domain.Project {
	return []*domain.Project{
		{
			Title:   "Terminal Mail",
			Summary: "A terminal-based email client with fuzzy finding.",
			Description: `A terminal-based email client built in Go with fuzzyfinder capabilities
using the Charmbracelet TUI framework and go-imap.`,
			TechStack: []string{"Go", "Bubble Tea", "IMAP"},
			Featured:  true,
			Published: true,
			SortOrder: 1,
		},
		{
			Title:   "TUI Music",
			Summary: "Stream YouTube Music from the command line.",
			Description: `A terminal-based music streaming application built in Go with an elegant TUI
interface, leveraging yt-dlp and mpv for seamless YouTube Music playback directly from the command line.`,
			TechStack: []string{"Go", "mpv", "yt-dlp"},
			Featured:  true,
			Published: true,
			SortOrder: 2,
		},
		{
			Title:   "Game Recommender",
			Summary: "Content-based game recommendations with TF-IDF.",
			Description: `A machine learning-powered web application that uses TF-IDF vectorization and cosine
similarity to recommend games based on content analysis, featuring interactive data visualizations and
real-time filtering by user reviews and ratings.`,
			TechStack: []string{"Python", "scikit-learn", "Plotly"},
			Published: true,
			SortOrder: 3,
		},
		{
			Title:   "Portfolio",
			Summary: "This site: Go, Gin and server-rendered pages.",
			Description: `A responsive portfolio website built with Go and the Gin framework, with an admin
back-office, privacy-conscious visitor analytics and a bug-bounty profile aggregator.`,
			TechStack: []string{"Go", "Gin", "SQLite"},
			Published: true,
			SortOrder: 4,
		},
	}
}

// Services are the services inserted into an empty database.
func Services() []*domain.Service {
	return []*domain.Service{
		{
			Title:       "Web Development",
			Description: "Fast server-rendered sites and APIs, from prototype to production.",
			Features:    []string{"Go or TypeScript backends", "SQL schema design", "Deployment and monitoring"},
			PriceFrom:   150000,
			Active:      true,
			SortOrder:   1,
		},
		{
			Title:       "Security Review",
			Description: "A focused review of a web application against the OWASP Top 10.",
			Features:    []string{"Authentication and session review", "Injection testing", "Written report"},
			PriceFrom:   80000,
			Active:      true,
			SortOrder:   2,
		},
		{
			Title:       "CLI & Tooling",
			Description: "Internal command-line tools and automation for developer teams.",
			Features:    []string{"Cross-platform binaries", "Interactive TUIs"},
			Active:      true,
			SortOrder:   3,
		},
	}
}

// BountyProfiles are the bug-bounty accounts inserted into an empty database.
func BountyProfiles() []*domain.BountyProfile {
	return []*domain.BountyProfile{
		{Platform: domain.PlatformHackerOne, Username: "zachkp", ProfileURL: "https://hackerone.com/zachkp", Active: true},
		{Platform: domain.PlatformBugcrowd, Username: "zachkp", ProfileURL: "https://bugcrowd.com/zachkp", Active: true},
		{Platform: domain.PlatformIntigriti, Username: "zachkp", ProfileURL: "https://app.intigriti.com/profile/zachkp", Active: true},
	}
}

// Entry is a position or a degree on the about page.
type Entry struct {
	Title        string
	Organization string
	Start        string
	End          string
	Points       []string
}

// Experience lists work history, newest first.
func Experience() []Entry {
	return []Entry{
		{
			Title:        "Presentation Expert",
			Organization: "Target",
			Start:        "Aug 2023",
			End:          "Present",
			Points: []string{
				"Executed over 300 merchandising transitions on tight timelines by organizing team workflows and adapting quickly to changing priorities",
				"Boosted operational efficiency by managing backroom inventory processes and streamlining communication between floor and logistics teams",
				"Enhanced pricing and signage accuracy across departments by standardizing daily checks and collaborating cross-functionally",
			},
		},
		{
			Title:        "Manager",
			Organization: "Jasons Catered Events",
			Start:        "Aug 2016",
			End:          "Present",
			Points: []string{
				"Improved client satisfaction by coordinating customized menus and ensuring all dietary requirements were accurately met",
				"Supported event technology by troubleshooting AV equipment and managing digital order tracking systems",
				"Maintained supply inventory and coordinated timely delivery between venues",
			},
		},
	}
}

// Education lists degrees and certifications.
func Education() []Entry {
	return []Entry{
		{
			Title:        "Bachelor of Computer Science",
			Organization: "Western Governors University",
			Start:        "Sept 2019",
			End:          "May 2023",
			Points: []string{
				"Graduated Magna Cum Laude with 3.8 GPA",
				"Relevant coursework: Data Structures, Algorithms, Web Development",
				"Senior project: Machine Learning recommendation system",
			},
		},
		{
			Title:        "Project Management",
			Organization: "CompTIA",
			Start:        "July 2022",
			End:          "Present",
			Points: []string{
				"Certified in agile project management methodology",
			},
		},
	}
}
