// Command inspect dumps the tail of a messenger database, decrypting
// message bodies where possible. Diagnostic tool for checking that a
// database is readable and the key derivation matches its contents.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"talkbridge/pkg/crypto"
	"talkbridge/pkg/logger"
	"talkbridge/pkg/store"
)

func main() {
	var (
		path  = flag.String("db", "", "path to the messenger sqlite database")
		limit = flag.Int("limit", 20, "number of rows to dump from the tail")
	)
	flag.Parse()
	if *path == "" {
		fmt.Fprintln(os.Stderr, "-db required")
		os.Exit(2)
	}
	logger.InitWithLevel("error")

	st, err := store.Open(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	ctx := context.Background()
	max, err := st.MaxLogID(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "max id: %v\n", err)
		os.Exit(1)
	}
	from := max - int64(*limit)
	if from < 0 {
		from = 0
	}
	rows, err := st.LogsAfter(ctx, from, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fetch: %v\n", err)
		os.Exit(1)
	}

	engine := crypto.NewEngine()
	for i := range rows {
		rec := &rows[i]
		meta := rec.Meta()
		body, err := engine.Decrypt(meta.Enc, rec.UserID, rec.Message)
		if err != nil {
			body = fmt.Sprintf("<decrypt failed: %v>", err)
		}
		fmt.Printf("%d\tchat=%d user=%d type=%d enc=%d\t%s\n",
			rec.ID, rec.ChatID, rec.UserID, rec.Type, meta.Enc, body)
	}
	fmt.Printf("-- %d rows, watermark candidate %d\n", len(rows), max)
}
