package main

import (
	"context"
	"fmt"
	"time"

	"github.com/adewumilot300-rgb/EduNexus/internal/config"
	"github.com/adewumilot300-rgb/EduNexus/internal/database"
	"github.com/adewumilot300-rgb/EduNexus/internal/logger"
	"github.com/adewumilot300-rgb/EduNexus/internal/model"
	"github.com/adewumilot300-rgb/EduNexus/internal/repository"
	"github.com/adewumilot300-rgb/EduNexus/internal/service"
)

// Seeds a small demo dataset: subjects, classes, a bank of questions per
// subject, and a roster of students. Registration PINs are printed once.
func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	subjectRepo := repository.NewSubjectRepository(pool)
	classRepo := repository.NewClassRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	studentRepo := repository.NewStudentRepository(pool)

	subjectService := service.NewSubjectService(subjectRepo, log)
	classService := service.NewClassService(classRepo)
	questionService := service.NewQuestionService(questionRepo)
	authService := service.NewAuthService(cfg, rdb)
	studentService := service.NewStudentService(studentRepo, authService)

	// ─── Subjects ──────────────────────────────────────────────────────
	fmt.Println("=== Seeding Subjects ===")
	subjectNames := []string{"Mathematics", "English", "Basic Science"}
	for _, name := range subjectNames {
		if _, err := subjectService.Create(ctx, &model.CreateSubjectRequest{Name: name}); err != nil {
			fmt.Printf("Subject %q: %v (skipping)\n", name, err)
			continue
		}
		fmt.Printf("Created subject %q\n", name)
	}

	// ─── Classes ───────────────────────────────────────────────────────
	fmt.Println("\n=== Seeding Classes ===")
	classNames := []string{"JSS1", "JSS2"}
	for _, name := range classNames {
		if _, err := classService.Create(ctx, &model.CreateClassRequest{Name: name}); err != nil {
			fmt.Printf("Class %q: %v (skipping)\n", name, err)
			continue
		}
		fmt.Printf("Created class %q\n", name)
	}

	// ─── Question Bank ─────────────────────────────────────────────────
	fmt.Println("\n=== Seeding Question Bank ===")
	created := 0
	for _, req := range demoQuestions() {
		if _, err := questionService.Create(ctx, &req); err != nil {
			fmt.Printf("Question %q: %v\n", req.Text, err)
			continue
		}
		created++
	}
	fmt.Printf("Created %d questions\n", created)

	// ─── Students ──────────────────────────────────────────────────────
	fmt.Println("\n=== Seeding Students ===")
	roster := []struct {
		Name  string
		Class string
		DOB   string
	}{
		{"Adaeze Okafor", "JSS1", "2012-03-15"},
		{"Babajide Adewale", "JSS1", "2012-07-02"},
		{"Chiamaka Eze", "JSS1", "2011-11-28"},
		{"Danjuma Ibrahim", "JSS1", "2012-01-09"},
		{"Efe Oghenekaro", "JSS1", "2012-05-21"},
		{"Folake Adeyemi", "JSS2", "2011-02-14"},
		{"Gbenga Oluwaseun", "JSS2", "2011-08-30"},
		{"Halima Abubakar", "JSS2", "2011-04-17"},
		{"Ikenna Nwosu", "JSS2", "2010-12-05"},
		{"Jumoke Balogun", "JSS2", "2011-06-23"},
	}

	year := time.Now().Year()
	registered := 0
	for _, row := range roster {
		req := &model.RegisterStudentRequest{
			Name:        row.Name,
			ClassName:   row.Class,
			DateOfBirth: row.DOB,
		}
		res, err := studentService.Register(ctx, req, year)
		if err != nil {
			fmt.Printf("Student %q: %v\n", row.Name, err)
			continue
		}
		registered++
		fmt.Printf("%-20s username=%-10s reg_no=%-14s pin=%s\n",
			res.Student.Name, res.Student.Username, res.Student.RegNo, res.PIN)
	}

	fmt.Printf("\nSeed completed! Registered %d/%d students.\n", registered, len(roster))
}

func demoQuestions() []model.AddQuestionRequest {
	mcq := func(subject, text string, options []string, correct, difficulty string) model.AddQuestionRequest {
		return model.AddQuestionRequest{
			Text:          text,
			Options:       options,
			CorrectAnswer: correct,
			Type:          string(model.QuestionTypeMCQ),
			Subject:       subject,
			Difficulty:    difficulty,
		}
	}
	gap := func(subject, text, answer, difficulty string) model.AddQuestionRequest {
		return model.AddQuestionRequest{
			Text:          text,
			CorrectAnswer: answer,
			Type:          string(model.QuestionTypeFillGap),
			Subject:       subject,
			Difficulty:    difficulty,
		}
	}

	return []model.AddQuestionRequest{
		mcq("Mathematics", "What is 12 x 8?", []string{"86", "96", "104", "88"}, "B", "Easy"),
		mcq("Mathematics", "Simplify: 3(x + 4) - 2x", []string{"x + 12", "5x + 12", "x + 4", "x - 12"}, "A", "Medium"),
		mcq("Mathematics", "What is the perimeter of a square with side 7 cm?", []string{"14 cm", "21 cm", "28 cm", "49 cm"}, "C", "Easy"),
		mcq("Mathematics", "Which of these is a prime number?", []string{"21", "33", "29", "27"}, "C", "Medium"),
		gap("Mathematics", "The value of 15 divided by 3 is ____.", "5", "Easy"),
		mcq("English", "Choose the correct plural of 'child'.", []string{"childs", "children", "childes", "childrens"}, "B", "Easy"),
		mcq("English", "Which word is a synonym of 'happy'?", []string{"sad", "angry", "joyful", "tired"}, "C", "Easy"),
		mcq("English", "Identify the verb in: 'The dog barked loudly.'", []string{"dog", "barked", "loudly", "the"}, "B", "Medium"),
		gap("English", "The past tense of 'go' is ____.", "went", "Easy"),
		mcq("Basic Science", "Water boils at what temperature at sea level?", []string{"90°C", "100°C", "110°C", "120°C"}, "B", "Easy"),
		mcq("Basic Science", "Which organ pumps blood around the body?", []string{"Lungs", "Liver", "Heart", "Kidney"}, "C", "Easy"),
		mcq("Basic Science", "Plants make food by a process called what?", []string{"Respiration", "Photosynthesis", "Digestion", "Evaporation"}, "B", "Medium"),
		gap("Basic Science", "The gas plants absorb from the air is carbon ____.", "dioxide", "Medium"),
	}
}
