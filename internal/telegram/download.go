package telegram

import (
	"context"
	"fmt"
	"os"

	"github.com/blockedby/chatexport/internal/export"
	"github.com/gotd/td/tg"
)

// downloadChunk is the byte limit per upload.getFile call. 512 KiB is
// the largest limit the api accepts for every offset.
const downloadChunk = 512 * 1024

// DownloadMedia transfers the attachment of a message to destPath.
// The file is written incrementally and removed again if the transfer
// fails partway.
func (c *Client) DownloadMedia(ctx context.Context, msg *export.Message, destPath string) error {
	loc, err := fileLocation(msg.Media)
	if err != nil {
		return err
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", destPath, err)
	}
	defer out.Close()

	var offset int64
	for {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			os.Remove(destPath)
			return err
		}

		resp, err := c.api().UploadGetFile(ctx, &tg.UploadGetFileRequest{
			Location: loc,
			Offset:   offset,
			Limit:    downloadChunk,
		})
		if err != nil {
			c.noteFloodWait(err)
			os.Remove(destPath)
			return fmt.Errorf("get file at offset %d: %w", offset, err)
		}

		chunk, ok := resp.(*tg.UploadFile)
		if !ok {
			os.Remove(destPath)
			return fmt.Errorf("unexpected file response %T", resp)
		}

		if len(chunk.Bytes) > 0 {
			if _, err := out.Write(chunk.Bytes); err != nil {
				os.Remove(destPath)
				return fmt.Errorf("write %s: %w", destPath, err)
			}
			offset += int64(len(chunk.Bytes))
		}

		if len(chunk.Bytes) < downloadChunk {
			break
		}
	}

	c.log.Debug().Int("message_id", msg.ID).Str("path", destPath).Int64("bytes", offset).Msg("telegram: media downloaded")
	return nil
}

// fileLocation builds the download location from the parse layer's
// media reference fields.
func fileLocation(media *export.MediaInfo) (tg.InputFileLocationClass, error) {
	if media == nil {
		return nil, fmt.Errorf("message has no media")
	}
	switch {
	case media.PhotoID != 0:
		return &tg.InputPhotoFileLocation{
			ID:            media.PhotoID,
			AccessHash:    media.PhotoAccessHash,
			FileReference: media.PhotoFileRef,
			ThumbSize:     media.PhotoThumb,
		}, nil
	case media.DocID != 0:
		return &tg.InputDocumentFileLocation{
			ID:            media.DocID,
			AccessHash:    media.DocAccessHash,
			FileReference: media.DocFileRef,
		}, nil
	default:
		return nil, fmt.Errorf("media has no downloadable file")
	}
}
