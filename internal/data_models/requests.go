package dto

import model "task-market.com/task-market/internal/models"

type CreateTaskRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Deadline    string  `json:"deadline"`
	Budget      float64 `json:"budget"`
}

type CreateOrderRequest struct {
	FreelancerID string `json:"freelancer_id"`
}

type CreateSubmissionRequest struct {
	Message     string             `json:"message"`
	Attachments []model.Attachment `json:"attachments"`
}

type RequestRevisionRequest struct {
	Note string `json:"note"`
}
