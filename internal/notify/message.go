package notify

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
)

// BuildSuccessBody renders the success email body: a numbered list of
// completed files, then a numbered list of failed files, with "NA" standing
// in for an empty section.
func BuildSuccessBody(trackerName string, completed, failed []FileResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi Team,\n\nMaster Tracker update completed for %s.\n\n", trackerName)

	b.WriteString("Success Files:\n")
	if len(completed) == 0 {
		b.WriteString("NA")
	} else {
		for i, file := range completed {
			if i > 0 {
				b.WriteByte('\n')
			}
			fmt.Fprintf(&b, "%d) %s - %s", i+1, file.Customer, file.FileName)
		}
	}

	b.WriteString("\n\nFailed Files:\n")
	if len(failed) == 0 {
		b.WriteString("NA")
	} else {
		for i, file := range failed {
			if i > 0 {
				b.WriteByte('\n')
			}
			fmt.Fprintf(&b, "%d) %s - %s - %s", i+1, file.Customer, file.FileName, file.Message)
		}
	}

	b.WriteString("\n\nRegards,\nPharmaTrack")
	return b.String()
}

// BuildFailureBody renders the failure email body with the run id, tracker
// name and error detail on one line.
func BuildFailureBody(runID int64, trackerName, errorMessage string) string {
	var b strings.Builder
	b.WriteString("Hi Team,\n\nMaster Tracker update failed.\n\n")
	fmt.Fprintf(&b, "%d - %s - %s", runID, trackerName, errorMessage)
	b.WriteString("\n\nRegards,\nPharmaTrack")
	return b.String()
}

// buildMessage assembles a multipart MIME message with a plain-text body
// and file attachments. Attachments that vanished between generation and
// send are skipped rather than failing the notification.
func buildMessage(from, to, cc, subject, body string, attachments []string) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(splitAddresses(to), ", "))
	if ccList := splitAddresses(cc); len(ccList) > 0 {
		fmt.Fprintf(&buf, "Cc: %s\r\n", strings.Join(ccList, ", "))
	}
	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n", writer.Boundary())
	buf.WriteString("\r\n")

	textHeader := textproto.MIMEHeader{}
	textHeader.Set("Content-Type", "text/plain; charset=utf-8")
	part, err := writer.CreatePart(textHeader)
	if err != nil {
		return nil, fmt.Errorf("create text part: %w", err)
	}
	if _, err := part.Write([]byte(body)); err != nil {
		return nil, fmt.Errorf("write body: %w", err)
	}

	for _, attachment := range attachments {
		data, err := os.ReadFile(attachment)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("read attachment %s: %w", attachment, err)
		}

		name := filepath.Base(attachment)
		header := textproto.MIMEHeader{}
		header.Set("Content-Type", "application/octet-stream")
		header.Set("Content-Transfer-Encoding", "base64")
		header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, fmt.Errorf("create attachment part: %w", err)
		}

		encoded := base64.StdEncoding.EncodeToString(data)
		for len(encoded) > 0 {
			line := encoded
			if len(line) > 76 {
				line = line[:76]
			}
			if _, err := fmt.Fprintf(part, "%s\r\n", line); err != nil {
				return nil, fmt.Errorf("write attachment: %w", err)
			}
			encoded = encoded[len(line):]
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close message: %w", err)
	}
	return buf.Bytes(), nil
}
