package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/urfave/cli/v2"

	"github.com/vitrinehq/vitrine/internal/uploader"
)

func upload(c *cli.Context) error {
	args := c.Args()
	if args.Len() != 1 {
		return fmt.Errorf("one argument expected")
	}

	src, err := homedir.Expand(args.Get(0))
	if err != nil {
		return fmt.Errorf("invalid path %q", args.Get(0))
	}
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("invalid path %q", src)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", src)
	}

	opts := []uploader.Option{
		uploader.WithMaxConcurrency(c.Int("concurrency")),
		uploader.WithRetryPolicy(uploader.RetryPolicy{
			MaxAttempts: c.Int("retries") + 1,
			Wait:        time.Second,
		}),
	}
	if c.Int64("chunk-size") > 0 {
		opts = append(opts, uploader.WithChunkSize(c.Int64("chunk-size")*1024*1024))
	}
	client, err := uploader.New(c.String("endpoint"), opts...)
	if err != nil {
		return err
	}

	fmt.Printf("Uploading %s\n", src)
	publicURL, err := client.UploadFile(c.Context, src, c.String("folder"), func(s uploader.Snapshot) {
		fmt.Printf("\r%3d%% (%s / %s)", s.Percentage, humanBytes(uint64(s.Loaded)), humanBytes(uint64(s.Total)))
	})
	fmt.Println()
	if err != nil {
		return err
	}
	fmt.Println(publicURL)
	return nil
}

func ls(c *cli.Context) error {
	u := c.String("endpoint") + "/vitrine/v1/objects"
	resp, err := http.Get(u)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("listing objects failed (%d)", resp.StatusCode)
	}
	var out struct {
		Objects []struct {
			Key       string `json:"key"`
			Size      int64  `json:"size"`
			PublicUrl string `json:"publicUrl"`
			Status    string `json:"status"`
			CreatedAt int64  `json:"createdAt"`
		} `json:"objects"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return err
	}
	for _, row := range out.Objects {
		if row.Status == "DELETED" {
			continue
		}
		ts := time.Unix(row.CreatedAt, 0).Local().Format(time.RFC3339)
		fmt.Printf("%s  %s  %s\n", ts, humanBytes(uint64(row.Size)), row.Key)
	}
	return nil
}

func rm(c *cli.Context) error {
	args := c.Args()
	if args.Len() != 1 {
		return fmt.Errorf("one argument expected")
	}
	u := c.String("endpoint") + "/vitrine/v1/objects/" + args.Get(0)
	req, err := http.NewRequest(http.MethodDelete, u, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("object %q does not exist", args.Get(0))
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("deleting object failed (%d)", resp.StatusCode)
	}
	return nil
}

func humanBytes(size uint64) string {
	if size < 1024 {
		return fmt.Sprintf("%5.1d B  ", size)
	}
	s := float64(size) / 1024
	if s < 1024 {
		return fmt.Sprintf("%5.1f KiB", s)
	}
	s /= 1024
	if s < 1024 {
		return fmt.Sprintf("%5.1f MiB", s)
	}
	s /= 1024
	return fmt.Sprintf("%5.1f GiB", s)
}

func main() {
	app := cli.NewApp()
	app.Name = "vitrine"
	app.Usage = "Upload showcase assets to object storage"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:  "endpoint",
			Usage: "control-plane base URL",
		},
		&cli.StringFlag{
			Name:  "config",
			Usage: "path to the config file",
		},
		&cli.StringFlag{
			Name:  "profile",
			Value: "default",
			Usage: "profile to load from the config file",
		},
	}
	app.Before = func(c *cli.Context) error {
		if c.String("endpoint") != "" {
			return nil
		}
		p, err := loadConfig(c.String("config"), c.String("profile"))
		if err != nil {
			return err
		}
		return c.Set("endpoint", p.Endpoint)
	}
	app.ExitErrHandler = func(c *cli.Context, err error) {
		if err != nil {
			os.Stderr.WriteString("Error: " + err.Error() + "\n")
		}
	}
	app.Commands = []*cli.Command{
		{
			Name:      "upload",
			Usage:     "Upload a file and print its public URL",
			UsageText: "vitrine upload <file>",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "folder",
					Usage: "target folder (default: chosen by content type)",
				},
				&cli.IntFlag{
					Name:  "concurrency",
					Value: uploader.DefaultMaxConcurrency,
					Usage: "number of parts uploaded in parallel",
				},
				&cli.Int64Flag{
					Name:  "chunk-size",
					Usage: "part size in MiB",
				},
				&cli.IntFlag{
					Name:  "retries",
					Usage: "retries per part after a transport failure",
				},
			},
			Action: upload,
		},
		{
			Name:      "ls",
			Usage:     "List uploaded objects",
			UsageText: "vitrine ls",
			Action:    ls,
		},
		{
			Name:      "rm",
			Usage:     "Remove an uploaded object from the listing",
			UsageText: "vitrine rm <key>",
			Action:    rm,
		},
	}

	app.Run(os.Args)
}
