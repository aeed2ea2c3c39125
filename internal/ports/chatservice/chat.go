// Package chatservice implements the chat collaborator over its HTTP API.
package chatservice

import (
	"context"
	"fmt"
	"net/http"

	"drivero/internal/ports"
	"drivero/pkg/client"
	apperrors "drivero/pkg/errors"
)

type openChannelRequest struct {
	StudentID    string `json:"student_id"`
	InstructorID string `json:"instructor_id"`
	LessonID     string `json:"lesson_id"`
}

type chatService struct {
	client *client.HttpClient
}

func NewChatService(httpClient *client.HttpClient) ports.ChatPort {
	return &chatService{client: httpClient}
}

func (s *chatService) OpenChannel(ctx context.Context, studentID, instructorID, lessonID string) error {
	resp, err := s.client.POST(ctx, "/v1/channels", openChannelRequest{
		StudentID:    studentID,
		InstructorID: instructorID,
		LessonID:     lessonID,
	})
	if err != nil {
		return apperrors.DownstreamUnavailable("chat service", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return apperrors.DownstreamUnavailable("chat service",
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	return nil
}
