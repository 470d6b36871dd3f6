package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"

	"github.com/brianvoe/gofakeit/v6"

	"tenet/config"
	"tenet/db"
	"tenet/services"
	"tenet/store"
)

// Seeds the environment with fake users, posts, scores, echoes and
// replies through the regular services, so every denormalized aggregate
// is built the same way production traffic builds it.
func main() {
	var (
		configPath string
		users      int
		posts      int
	)
	flag.StringVar(&configPath, "config", "config/config.yaml", "Path to the configuration file")
	flag.IntVar(&users, "users", 10, "Number of users to create")
	flag.IntVar(&posts, "posts", 50, "Number of posts to create")
	flag.Parse()

	if err := config.LoadConfig(configPath); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := db.ConnectDB(); err != nil {
		log.Fatalf("Failed to connect to the database: %v", err)
	}
	ctx := context.Background()
	if err := store.Connect(ctx); err != nil {
		log.Fatalf("Failed to connect to the document store: %v", err)
	}

	userService := services.NewUserService()
	postService := services.NewPostService()
	scoreService := services.NewScoreService()
	echoService := services.NewEchoService()
	replyService := services.NewReplyService()

	uids := make([]int64, 0, users)
	handles := make(map[int64]string, users)
	for i := 0; i < users; i++ {
		username := fmt.Sprintf("%s%d", gofakeit.Username(), i)
		user, err := userService.Provision(ctx, username, gofakeit.Name(), gofakeit.Password(true, true, true, false, false, 16))
		if err != nil {
			log.Printf("skipping user %s: %v", username, err)
			continue
		}
		uids = append(uids, user.ID)
		handles[user.ID] = user.Handle
	}
	if len(uids) == 0 {
		log.Fatal("no users created, nothing to seed")
	}
	log.Printf("created %d users", len(uids))

	created := 0
	for i := 0; i < posts; i++ {
		author := uids[rand.Intn(len(uids))]
		user, err := userService.GetUser(ctx, author)
		if err != nil {
			continue
		}

		input := services.NewPostInput{
			Content:      gofakeit.Sentence(12),
			AuthorUID:    user.ID,
			AuthorDID:    user.DID,
			AuthorHandle: user.Handle,
		}
		// Roughly a third of posts carry source metadata.
		if rand.Intn(3) == 0 {
			input.SourceTitle = gofakeit.BookTitle()
			input.SourceURL = gofakeit.URL()
		}

		postID, err := postService.CreatePost(ctx, input)
		if err != nil {
			log.Printf("skipping post: %v", err)
			continue
		}
		created++

		for _, uid := range uids {
			if rand.Intn(2) == 0 {
				if _, err := scoreService.SetScore(ctx, postID, uid, rand.Intn(101)); err != nil {
					log.Printf("score failed: %v", err)
				}
			}
			if rand.Intn(3) == 0 {
				if _, err := echoService.ToggleEcho(ctx, postID, uid); err != nil {
					log.Printf("echo failed: %v", err)
				}
			}
			if rand.Intn(4) == 0 {
				if err := replyService.SubmitReply(ctx, postID, uid, handles[uid], gofakeit.Sentence(8)); err != nil {
					log.Printf("reply failed: %v", err)
				}
			}
		}
	}
	log.Printf("created %d posts with scores, echoes and replies", created)
}
