package main

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

var errEmptyPageToken = errors.New("listing truncated without a continuation token")

// listAll follows pagination until the backend reports no more results and
// returns every key under remotePath as a RelativePath.
func listAll(ctx context.Context, client BucketClient, remotePath string, pageSize int32) (PathSet, error) {
	prefix := keyPrefix(remotePath)
	files := newPathSet()
	token := ""
	pages := 0

	for {
		page, listErr := client.ListObjects(ctx, ListObjectsInput{
			Prefix:    prefix,
			PageToken: token,
			PageSize:  pageSize,
		})
		if listErr != nil {
			return nil, &StorageError{Op: "list", Key: prefix, Err: listErr}
		}
		pages++

		for _, object := range page.Objects {
			rel := normalizePath(prefix, object.Key)
			// folder placeholder objects normalize to nothing
			if rel == "" {
				continue
			}
			files.Add(rel)
		}

		if !page.IsTruncated {
			break
		}
		if page.NextPageToken == "" {
			return nil, &StorageError{Op: "list", Key: prefix, Err: errEmptyPageToken}
		}
		token = page.NextPageToken
	}

	log.Debug(fmt.Sprintf("Listed %d objects under %q in %d pages", files.Cardinality(), prefix, pages))
	return files, nil
}
