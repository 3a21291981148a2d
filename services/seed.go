package services

import (
	"context"
	"time"

	"greened-backend/logger"
	"greened-backend/models"

	"gorm.io/gorm"
)

type SeedResult struct {
	Seeded        bool   `json:"seeded"`
	Message       string `json:"message"`
	Modules       int    `json:"modules"`
	Quizzes       int    `json:"quizzes"`
	Challenges    int    `json:"challenges"`
	Opportunities int    `json:"opportunities"`
}

type SeedService struct {
	DB  *gorm.DB
	Log *logger.Logger
	Now func() time.Time
}

func NewSeedService(db *gorm.DB, log *logger.Logger) *SeedService {
	return &SeedService{DB: db, Log: log.With("service", "SeedService"), Now: time.Now}
}

// SeedAsAdmin is the HTTP entry point; only admins may seed.
func (s *SeedService) SeedAsAdmin(ctx context.Context, sess *Session) (*SeedResult, error) {
	if _, err := sess.requireUser(); err != nil {
		return nil, err
	}
	if !sess.IsAdmin() {
		return nil, ErrUnauthorized
	}
	return s.Seed(ctx)
}

// Seed inserts the starter catalogue when the modules table is empty.
func (s *SeedService) Seed(ctx context.Context) (*SeedResult, error) {
	out := &SeedResult{}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Module{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			out.Message = "catalogue already present, nothing seeded"
			return nil
		}

		modules := seedModules()
		if err := tx.Create(&modules).Error; err != nil {
			return err
		}
		quizzes := seedQuizzes(modules[0].ID)
		if err := tx.Create(&quizzes).Error; err != nil {
			return err
		}
		challenges := seedChallenges()
		if err := tx.Create(&challenges).Error; err != nil {
			return err
		}
		opportunities := seedOpportunities(s.Now().UTC())
		if err := tx.Create(&opportunities).Error; err != nil {
			return err
		}

		out.Seeded = true
		out.Message = "database seeded successfully"
		out.Modules = len(modules)
		out.Quizzes = len(quizzes)
		out.Challenges = len(challenges)
		out.Opportunities = len(opportunities)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out.Seeded {
		s.Log.Info("catalogue seeded",
			"modules", out.Modules, "quizzes", out.Quizzes,
			"challenges", out.Challenges, "opportunities", out.Opportunities)
	}
	return out, nil
}

func seedModules() []models.Module {
	return []models.Module{
		{
			Title:              "Introduction to Environmental Science",
			TitlePunjabi:       "ਵਾਤਾਵਰਣ ਵਿਗਿਆਨ ਦੀ ਜਾਣ-ਪਛਾਣ",
			Description:        "Learn the basics of environmental science and ecology",
			DescriptionPunjabi: "ਵਾਤਾਵਰਣ ਵਿਗਿਆਨ ਅਤੇ ਵਾਤਾਵਰਣ ਵਿਗਿਆਨ ਦੀਆਂ ਬੁਨਿਆਦੀ ਗੱਲਾਂ ਸਿੱਖੋ",
			Content:            "Environmental science is an interdisciplinary field that combines physical, biological, and information sciences to study the environment and solve environmental problems...",
			ContentPunjabi:     "ਵਾਤਾਵਰਣ ਵਿਗਿਆਨ ਇੱਕ ਅੰਤਰ-ਅਨੁਸ਼ਾਸਨੀ ਖੇਤਰ ਹੈ...",
			ImageURL:           "https://images.unsplash.com/photo-1441974231531-c6227db76b6e?w=500",
			Difficulty:         "beginner",
			EstimatedTime:      30,
			Points:             50,
			Category:           "basics",
			IsPublished:        true,
			Order:              1,
		},
		{
			Title:              "Climate Change and Global Warming",
			TitlePunjabi:       "ਜਲਵਾਯੂ ਤਬਦੀਲੀ ਅਤੇ ਗਲੋਬਲ ਵਾਰਮਿੰਗ",
			Description:        "Understanding climate change, its causes, and impacts",
			DescriptionPunjabi: "ਜਲਵਾਯੂ ਤਬਦੀਲੀ, ਇਸਦੇ ਕਾਰਨ ਅਤੇ ਪ੍ਰਭਾਵਾਂ ਨੂੰ ਸਮਝਣਾ",
			Content:            "Climate change refers to long-term shifts in global temperatures and weather patterns...",
			ContentPunjabi:     "ਜਲਵਾਯੂ ਤਬਦੀਲੀ ਦਾ ਮਤਲਬ ਗਲੋਬਲ ਤਾਪਮਾਨ ਅਤੇ ਮੌਸਮੀ ਪੈਟਰਨ ਵਿੱਚ ਲੰਬੇ ਸਮੇਂ ਦੀ ਤਬਦੀਲੀ ਹੈ...",
			ImageURL:           "https://images.unsplash.com/photo-1569163139394-de4e4f43e4e3?w=500",
			Difficulty:         "intermediate",
			EstimatedTime:      45,
			Points:             75,
			Category:           "climate",
			IsPublished:        true,
			Order:              2,
		},
		{
			Title:              "Biodiversity and Conservation",
			TitlePunjabi:       "ਜੈਵ ਵਿਭਿੰਨਤਾ ਅਤੇ ਸੰਰਖਿਆ",
			Description:        "Explore biodiversity, ecosystems, and conservation strategies",
			DescriptionPunjabi: "ਜੈਵ ਵਿਭਿੰਨਤਾ, ਵਾਤਾਵਰਣ ਪ੍ਰਣਾਲੀਆਂ ਅਤੇ ਸੰਰਖਿਆ ਰਣਨੀਤੀਆਂ ਦੀ ਖੋਜ ਕਰੋ",
			Content:            "Biodiversity refers to the variety of life on Earth at all its levels...",
			ContentPunjabi:     "ਜੈਵ ਵਿਭਿੰਨਤਾ ਦਾ ਮਤਲਬ ਧਰਤੀ ਉੱਤੇ ਜੀਵਨ ਦੀ ਵਿਭਿੰਨਤਾ ਹੈ...",
			ImageURL:           "https://images.unsplash.com/photo-1574263867128-a3d5c1b1deaa?w=500",
			Difficulty:         "intermediate",
			EstimatedTime:      40,
			Points:             70,
			Category:           "biodiversity",
			IsPublished:        true,
			Order:              3,
		},
	}
}

func seedQuizzes(firstModuleID string) []models.Quiz {
	return []models.Quiz{
		{
			ModuleID:     firstModuleID,
			Title:        "Environmental Science Basics Quiz",
			TitlePunjabi: "ਵਾਤਾਵਰਣ ਵਿਗਿਆਨ ਬੁਨਿਆਦੀ ਕਵਿਜ਼",
			Questions: []models.QuizQuestion{
				{
					Question:           "What is the study of interactions between organisms and their environment called?",
					QuestionPunjabi:    "ਜੀਵਾਂ ਅਤੇ ਉਨ੍ਹਾਂ ਦੇ ਵਾਤਾਵਰਣ ਵਿਚਕਾਰ ਪਰਸਪਰ ਕਿਰਿਆ ਦੇ ਅਧਿਐਨ ਨੂੰ ਕੀ ਕਿਹਾ ਜਾਂਦਾ ਹੈ?",
					Options:            []string{"Biology", "Ecology", "Chemistry", "Physics"},
					OptionsPunjabi:     []string{"ਜੀਵ ਵਿਗਿਆਨ", "ਵਾਤਾਵਰਣ ਵਿਗਿਆਨ", "ਰਸਾਇਣ ਵਿਗਿਆਨ", "ਭੌਤਿਕ ਵਿਗਿਆਨ"},
					CorrectAnswer:      1,
					Explanation:        "Ecology is the study of interactions between organisms and their environment.",
					ExplanationPunjabi: "ਵਾਤਾਵਰਣ ਵਿਗਿਆਨ ਜੀਵਾਂ ਅਤੇ ਉਨ੍ਹਾਂ ਦੇ ਵਾਤਾਵਰਣ ਵਿਚਕਾਰ ਪਰਸਪਰ ਕਿਰਿਆ ਦਾ ਅਧਿਐਨ ਹੈ।",
				},
				{
					Question:           "Which of the following is a renewable resource?",
					QuestionPunjabi:    "ਹੇਠਾਂ ਦਿੱਤਿਆਂ ਵਿੱਚੋਂ ਕਿਹੜਾ ਨਵਿਆਉਣਯੋਗ ਸਰੋਤ ਹੈ?",
					Options:            []string{"Coal", "Solar energy", "Natural gas", "Oil"},
					OptionsPunjabi:     []string{"ਕੋਲਾ", "ਸੂਰਜੀ ਊਰਜਾ", "ਕੁਦਰਤੀ ਗੈਸ", "ਤੇਲ"},
					CorrectAnswer:      1,
					Explanation:        "Solar energy is renewable as it comes from the sun which is constantly available.",
					ExplanationPunjabi: "ਸੂਰਜੀ ਊਰਜਾ ਨਵਿਆਉਣਯੋਗ ਹੈ ਕਿਉਂਕਿ ਇਹ ਸੂਰਜ ਤੋਂ ਆਉਂਦੀ ਹੈ ਜੋ ਲਗਾਤਾਰ ਉਪਲਬਧ ਹੈ।",
				},
			},
			TimeLimit:    300,
			PassingScore: 70,
			Points:       25,
		},
	}
}

func seedChallenges() []models.Challenge {
	return []models.Challenge{
		{
			Title:              "Plant a Tree Challenge",
			TitlePunjabi:       "ਰੁੱਖ ਲਗਾਓ ਚੁਣੌਤੀ",
			Description:        "Plant a tree in your community and document the process",
			DescriptionPunjabi: "ਆਪਣੇ ਭਾਈਚਾਰੇ ਵਿੱਚ ਇੱਕ ਰੁੱਖ ਲਗਾਓ ਅਤੇ ਪ੍ਰਕਿਰਿਆ ਦਾ ਦਸਤਾਵੇਜ਼ੀਕਰਣ ਕਰੋ",
			Type:               models.ChallengeTypeEcoTask,
			Category:           "conservation",
			Difficulty:         "beginner",
			Points:             100,
			ImageURL:           "https://images.unsplash.com/photo-1416879595882-3373a0480b5b?w=500",
			Instructions: []string{
				"Choose an appropriate location for planting",
				"Select a native tree species",
				"Dig a proper hole and plant the tree",
				"Take photos of the process",
				"Submit your documentation",
			},
			InstructionsPunjabi: []string{
				"ਲਗਾਉਣ ਲਈ ਢੁਕਵੀਂ ਜਗ੍ਹਾ ਚੁਣੋ",
				"ਇੱਕ ਦੇਸੀ ਰੁੱਖ ਦੀ ਕਿਸਮ ਚੁਣੋ",
				"ਢੁਕਵਾਂ ਟੋਆ ਪੁੱਟੋ ਅਤੇ ਰੁੱਖ ਲਗਾਓ",
				"ਪ੍ਰਕਿਰਿਆ ਦੀਆਂ ਫੋਟੋਆਂ ਲਓ",
				"ਆਪਣਾ ਦਸਤਾਵੇਜ਼ੀਕਰਣ ਜਮ੍ਹਾਂ ਕਰੋ",
			},
			IsActive:             true,
			RequiresVerification: true,
		},
		{
			Title:              "Waste Reduction Week",
			TitlePunjabi:       "ਰਦੀ ਘਟਾਉਣ ਹਫ਼ਤਾ",
			Description:        "Track and reduce your household waste for one week",
			DescriptionPunjabi: "ਇੱਕ ਹਫ਼ਤੇ ਲਈ ਆਪਣੇ ਘਰੇਲੂ ਰਦੀ ਦਾ ਪਤਾ ਲਗਾਓ ਅਤੇ ਘਟਾਓ",
			Type:               models.ChallengeTypeEcoTask,
			Category:           "waste",
			Difficulty:         "intermediate",
			Points:             75,
			ImageURL:           "https://images.unsplash.com/photo-1532996122724-e3c354a0b15b?w=500",
			Instructions: []string{
				"Measure your daily waste production",
				"Implement waste reduction strategies",
				"Document your progress with photos",
				"Calculate total waste reduced",
				"Share your results",
			},
			InstructionsPunjabi: []string{
				"ਆਪਣੇ ਰੋਜ਼ਾਨਾ ਰਦੀ ਉਤਪਾਦਨ ਨੂੰ ਮਾਪੋ",
				"ਰਦੀ ਘਟਾਉਣ ਦੀਆਂ ਰਣਨੀਤੀਆਂ ਲਾਗੂ ਕਰੋ",
				"ਫੋਟੋਆਂ ਨਾਲ ਆਪਣੀ ਪ੍ਰਗਤੀ ਦਾ ਦਸਤਾਵੇਜ਼ੀਕਰਣ ਕਰੋ",
				"ਕੁੱਲ ਘਟਾਈ ਗਈ ਰਦੀ ਦੀ ਗਣਨਾ ਕਰੋ",
				"ਆਪਣੇ ਨਤੀਜੇ ਸਾਂਝੇ ਕਰੋ",
			},
			IsActive:             true,
			RequiresVerification: true,
		},
		{
			Title:              "Environmental Quiz Championship",
			TitlePunjabi:       "ਵਾਤਾਵਰਣ ਕਵਿਜ਼ ਚੈਂਪੀਅਨਸ਼ਿਪ",
			Description:        "Complete all environmental quizzes with 90% or higher score",
			DescriptionPunjabi: "90% ਜਾਂ ਵੱਧ ਸਕੋਰ ਨਾਲ ਸਾਰੇ ਵਾਤਾਵਰਣ ਕਵਿਜ਼ ਪੂਰੇ ਕਰੋ",
			Type:               models.ChallengeTypeQuiz,
			Category:           "knowledge",
			Difficulty:         "advanced",
			Points:             150,
			ImageURL:           "https://images.unsplash.com/photo-1606092195730-5d7b9af1efc5?w=500",
			Instructions: []string{
				"Complete all available environmental quizzes",
				"Achieve 90% or higher on each quiz",
				"Submit screenshot of your results",
				"Maintain consistent high performance",
			},
			InstructionsPunjabi: []string{
				"ਸਾਰੇ ਉਪਲਬਧ ਵਾਤਾਵਰਣ ਕਵਿਜ਼ ਪੂਰੇ ਕਰੋ",
				"ਹਰ ਕਵਿਜ਼ ਵਿੱਚ 90% ਜਾਂ ਵੱਧ ਪ੍ਰਾਪਤ ਕਰੋ",
				"ਆਪਣੇ ਨਤੀਜਿਆਂ ਦਾ ਸਕ੍ਰੀਨਸ਼ਾਟ ਜਮ੍ਹਾਂ ਕਰੋ",
				"ਲਗਾਤਾਰ ਉੱਚ ਪ੍ਰਦਰਸ਼ਨ ਬਣਾਈ ਰੱਖੋ",
			},
			IsActive:             true,
			RequiresVerification: false,
		},
	}
}

// seedOpportunities dates deadlines from now so the expiry job keeps them listed.
func seedOpportunities(now time.Time) []models.Opportunity {
	deadline := func(days int) string { return now.AddDate(0, 0, days).Format(dateLayout) }
	return []models.Opportunity{
		{
			Title:              "Green Tech Internship Program",
			TitlePunjabi:       "ਗ੍ਰੀਨ ਟੈਕ ਇੰਟਰਨਸ਼ਿਪ ਪ੍ਰੋਗਰਾਮ",
			Description:        "3-month internship program focused on sustainable technology solutions",
			DescriptionPunjabi: "ਟਿਕਾਊ ਤਕਨਾਲੋਜੀ ਹੱਲਾਂ 'ਤੇ ਕੇਂਦ੍ਰਿਤ 3-ਮਹੀਨੇ ਦਾ ਇੰਟਰਨਸ਼ਿਪ ਪ੍ਰੋਗਰਾਮ",
			Organization:       "EcoTech Solutions",
			Location:           "Chandigarh, Punjab",
			Type:               "internship",
			Category:           "technology",
			Requirements: []string{
				"Currently enrolled in engineering or environmental science",
				"Basic programming knowledge",
				"Passion for environmental sustainability",
				"Good communication skills",
			},
			ApplicationURL: "https://ecotech.example.com/apply",
			Deadline:       deadline(60),
			IsActive:       true,
			ImageURL:       "https://images.unsplash.com/photo-1497366216548-37526070297c?w=500",
			ContactEmail:   "internships@ecotech.example.com",
		},
		{
			Title:              "Environmental Research Volunteer",
			TitlePunjabi:       "ਵਾਤਾਵਰਣ ਖੋਜ ਸਵੈਸੇਵਕ",
			Description:        "Volunteer opportunity to assist in environmental research projects",
			DescriptionPunjabi: "ਵਾਤਾਵਰਣ ਖੋਜ ਪ੍ਰੋਜੈਕਟਾਂ ਵਿੱਚ ਸਹਾਇਤਾ ਕਰਨ ਦਾ ਸਵੈਸੇਵਕ ਮੌਕਾ",
			Organization:       "Punjab Environmental Research Institute",
			Location:           "Ludhiana, Punjab",
			Type:               "volunteer",
			Category:           "research",
			Requirements: []string{
				"Interest in environmental science",
				"Ability to work in field conditions",
				"Flexible schedule",
				"Team collaboration skills",
			},
			ApplicationURL: "https://peri.example.com/volunteer",
			Deadline:       deadline(75),
			IsActive:       true,
			ImageURL:       "https://images.unsplash.com/photo-1559827260-dc66d52bef19?w=500",
			ContactEmail:   "volunteer@peri.example.com",
		},
		{
			Title:              "Sustainable Agriculture Scholarship",
			TitlePunjabi:       "ਟਿਕਾਊ ਖੇਤੀਬਾੜੀ ਸਕਾਲਰਸ਼ਿਪ",
			Description:        "Scholarship for students pursuing sustainable agriculture studies",
			DescriptionPunjabi: "ਟਿਕਾਊ ਖੇਤੀਬਾੜੀ ਅਧਿਐਨ ਕਰਨ ਵਾਲੇ ਵਿਦਿਆਰਥੀਆਂ ਲਈ ਸਕਾਲਰਸ਼ਿਪ",
			Organization:       "Punjab Agricultural University",
			Location:           "Ludhiana, Punjab",
			Type:               "scholarship",
			Category:           "agriculture",
			Requirements: []string{
				"Enrolled in agriculture or related field",
				"Minimum 75% academic performance",
				"Demonstrated interest in sustainability",
				"Financial need documentation",
			},
			ApplicationURL: "https://pau.example.com/scholarship",
			Deadline:       deadline(90),
			IsActive:       true,
			ImageURL:       "https://images.unsplash.com/photo-1574323347407-f5e1ad6d020b?w=500",
			ContactEmail:   "scholarships@pau.example.com",
		},
	}
}
