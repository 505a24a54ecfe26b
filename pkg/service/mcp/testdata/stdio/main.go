package main

import (
	"context"
	"log"
	"os"

	"github.com/codenest/promptcanvas/pkg/adapter"
	"github.com/codenest/promptcanvas/pkg/repository"
	"github.com/codenest/promptcanvas/pkg/service/mcp"
	"github.com/codenest/promptcanvas/pkg/usecase/generation"
	"github.com/codenest/promptcanvas/pkg/usecase/notify"
)

// Serves the promptcanvas tools over stdio with in-memory history.
// TEST_IMAGE_ENDPOINT points generation at a local test server.
func main() {
	repo := repository.New(adapter.NewMemory())
	builder := generation.NewBuilder(generation.WithEndpoint(os.Getenv("TEST_IMAGE_ENDPOINT")))
	ctrl := generation.New(adapter.NewHTTPImageFetcher(), repo, &notify.Recorder{},
		generation.WithBuilder(builder),
		generation.WithSessionStore(repo),
	)

	if err := mcp.New(ctrl, repo, mcp.WithVersion("stdio-test")).RunStdio(context.Background()); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
