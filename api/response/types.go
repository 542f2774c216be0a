/*
Package response - API 层统一响应处理

1. HTTP 状态码映射放在 API 层，领域层和应用层只认哨兵错误
2. 错误响应不暴露内部细节，内部错误统一返回 "internal server error"
3. 所有响应携带 RequestID 用于日志追踪

堆栈优先从领域错误（shared.Stacker）提取，不带堆栈的错误在处理点捕获。

响应格式:

	成功: { success: true, data: {...}, message: "...", code: 200, request_id: "..." }
	失败: { success: false, error: "ERROR_CODE", message: "...", details: {...}, code: 4xx/5xx, request_id: "..." }
*/
package response

// RequestIDKey 是 gin context 中保存请求 ID 的键。
const RequestIDKey = "request_id"

// SideEffectHeader 提交成功但副作用未完成时返回给调用方。
const SideEffectHeader = "X-Side-Effect-Pending"

// Response 是统一响应结构。
type Response struct {
	Success   bool              `json:"success"`
	Data      interface{}       `json:"data,omitempty"`
	Error     string            `json:"error,omitempty"`
	Code      int               `json:"code"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// ListResponse 列表响应，courses 不分页。
type ListResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data"`
	Total     int         `json:"total"`
	Message   string      `json:"message"`
	Code      int         `json:"code"`
	RequestID string      `json:"request_id,omitempty"`
}
