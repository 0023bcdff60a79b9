// Package books 图书目录：内存存储、服务层与 gin 控制器。
package books

import "strings"

// Book 目录中的一本书。
type Book struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Author      string `json:"author"`
}

// Input 创建或更新图书的请求体。ID 为 0 时由服务分配。
type Input struct {
	ID          int    `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Author      string `json:"author"`
}

// UpdateRequest 更新操作的入参。
type UpdateRequest struct {
	ID    int   `json:"id"`
	Input Input `json:"input"`
}

// Deleted 删除操作的响应体。
type Deleted struct {
	Message string `json:"message"`
}

// MsgDeleted 删除成功的提示
const MsgDeleted = "Book deleted successfully!"

func (in Input) validate() error {
	if in.ID < 0 {
		return invalidf("id must be positive")
	}
	if strings.TrimSpace(in.Title) == "" {
		return invalidf("title is required")
	}
	return nil
}

// seed 初始目录
func seed() []Book {
	return []Book{
		{ID: 1, Title: "The Go Programming Language", Description: "Idiomatic Go from the ground up.", Author: "Alan A. A. Donovan, Brian W. Kernighan"},
		{ID: 2, Title: "Designing Data-Intensive Applications", Description: "The big ideas behind reliable, scalable systems.", Author: "Martin Kleppmann"},
		{ID: 3, Title: "Site Reliability Engineering", Description: "How Google runs production systems.", Author: "Betsy Beyer, Chris Jones, Jennifer Petoff, Niall Richard Murphy"},
	}
}
