package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/oklog/ulid/v2"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/onlytraining/trainsync/internal/config"
	"github.com/onlytraining/trainsync/internal/domain"
	"github.com/onlytraining/trainsync/internal/repository"
)

// Seeds a starter workout set for a user. Usage:
//
//	SEED_USER_ID=<user> go run ./cmd/seed/workouts
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	userID := envUserID()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoDB.URI))
	if err != nil {
		log.Fatalf("Failed to connect to Mongo: %v", err)
	}
	defer client.Disconnect(ctx)

	db := client.Database(cfg.MongoDB.Database)
	workoutRepo := repository.NewMongoWorkoutRepository(db)
	itemRepo := repository.NewMongoWorkoutItemRepository(db)

	type seedItem struct {
		Title       string
		Reps        string
		Sets        int
		RestSeconds int
		VideoURL    string
	}
	seeds := []struct {
		Name  string
		Focus string
		Items []seedItem
	}{
		{
			Name:  "Push Day",
			Focus: "Push",
			Items: []seedItem{
				{Title: "Barbell Bench Press", Reps: "8/8/6/6", Sets: 4, RestSeconds: 120, VideoURL: "https://www.youtube.com/watch?v=EUjh50tLlBo"},
				{Title: "Incline Dumbbell Press", Reps: "10/10/8", Sets: 3, RestSeconds: 90, VideoURL: "https://www.youtube.com/watch?v=8iPEnn-ltC8"},
				{Title: "Overhead Press", Reps: "8/8/8", Sets: 3, RestSeconds: 120, VideoURL: "https://www.youtube.com/watch?v=HzIiInu578Q"},
				{Title: "Lateral Raise", Reps: "15/12/12", Sets: 3, RestSeconds: 60, VideoURL: "https://www.youtube.com/watch?v=3VcKaXpzqRo"},
				{Title: "Cable Fly", Reps: "12/12/12", Sets: 3, RestSeconds: 60, VideoURL: "https://www.youtube.com/watch?v=I-Ue34qLxc4"},
			},
		},
		{
			Name:  "Pull Day",
			Focus: "Pull",
			Items: []seedItem{
				{Title: "Pull Up", Reps: "8/8/6", Sets: 3, RestSeconds: 120, VideoURL: "https://www.youtube.com/watch?v=eGo4IYlbE5g"},
				{Title: "Barbell Row", Reps: "8/8/8", Sets: 3, RestSeconds: 120, VideoURL: "https://www.youtube.com/watch?v=DgyslsszCQ0"},
				{Title: "Lat Pulldown", Reps: "12/10/10", Sets: 3, RestSeconds: 90, VideoURL: "https://www.youtube.com/watch?v=CAwf7n6Luuc"},
				{Title: "Face Pull", Reps: "15/15/15", Sets: 3, RestSeconds: 60, VideoURL: "https://www.youtube.com/watch?v=ntBwG1E3Pzs"},
			},
		},
		{
			Name:  "Leg Day",
			Focus: "Legs",
			Items: []seedItem{
				{Title: "Barbell Squat", Reps: "8/8/6/6", Sets: 4, RestSeconds: 180, VideoURL: "https://www.youtube.com/watch?v=SW_C1A-rejs"},
				{Title: "Romanian Deadlift", Reps: "10/10/8", Sets: 3, RestSeconds: 120, VideoURL: "https://www.youtube.com/watch?v=JCXUYuzwZ_M"},
				{Title: "Leg Press", Reps: "12/12/10", Sets: 3, RestSeconds: 120, VideoURL: "https://www.youtube.com/watch?v=IZxyjW7MPJQ"},
				{Title: "Lying Leg Curl", Reps: "12/12/12", Sets: 3, RestSeconds: 90, VideoURL: "https://www.youtube.com/watch?v=1Tq3QdYUuHs"},
				{Title: "Calf Raise", Reps: "15/15/15/15", Sets: 4, RestSeconds: 60, VideoURL: "https://www.youtube.com/watch?v=3UWi44yN-wM"},
			},
		},
	}

	for _, seed := range seeds {
		workout := &domain.Workout{
			ID:     newID(),
			UserID: userID,
			Name:   seed.Name,
			Focus:  seed.Focus,
		}
		if err := workoutRepo.Create(ctx, workout); err != nil {
			log.Fatalf("Failed to seed workout %s: %v", seed.Name, err)
		}
		for i, item := range seed.Items {
			wi := &domain.WorkoutItem{
				ID:          newID(),
				WorkoutID:   workout.ID,
				UserID:      userID,
				Title:       item.Title,
				DefaultReps: item.Reps,
				DefaultSets: item.Sets,
				RestSeconds: item.RestSeconds,
				VideoURL:    item.VideoURL,
				OrderIndex:  i,
			}
			if err := itemRepo.Create(ctx, wi); err != nil {
				log.Fatalf("Failed to seed item %s: %v", item.Title, err)
			}
		}
		fmt.Printf("Seeded %s (%d items)\n", seed.Name, len(seed.Items))
	}
}

func envUserID() string {
	userID := os.Getenv("SEED_USER_ID")
	if userID == "" {
		log.Fatal("SEED_USER_ID is required")
	}
	return userID
}

func newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}
