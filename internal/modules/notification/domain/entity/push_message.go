package entity

// PushMessage 一批外部推送。TemplateId 非空时服务端模板优先，Title/Body 被忽略
type PushMessage struct {
	Title       string
	Body        string
	TemplateId  string
	Data        map[string]interface{}
	ExternalIds []string
}
