package audio

import (
	"encoding/json"
	"fmt"
	"strconv"
	"unicode/utf8"

	bilibili "github.com/waiav123/bilibili-api"
	"github.com/waiav123/bilibili-api/pkg/errors"
)

// 标题长度上限(按字符数)
const maxTitleRunes = 80

// Role 创作成员分工
type Role int

const (
	RoleSinger      Role = 1 // 歌手
	RoleLyricist    Role = 2 // 作词
	RoleComposer    Role = 3 // 作曲
	RoleArranger    Role = 4 // 编曲
	RoleMixer       Role = 5 // 混音
	RolePlayer      Role = 6 // 演奏
	RoleSoundSource Role = 7 // 音源
	RoleTuner       Role = 8 // 调音
	RoleCoverMaker  Role = 9 // 封面制作
)

// AuthorInfo 创作成员. MID 为 0 表示站外人员, 仅记录名字
type AuthorInfo struct {
	Name string `json:"name"`
	MID  int64  `json:"mid"`
}

// SongMeta 歌曲元数据, 提交稿件时随表单发出.
// Title 必填, 其余字段按稿件情况选填
type SongMeta struct {
	// Title 标题
	Title string
	// Intro 简介
	Intro string
	// Tags 标签
	Tags []string
	// Aliases 别名
	Aliases []string

	// 分类, 对应投稿页的下拉选项
	CreationType CreationType
	ContentType  ContentType
	SongType     SongType
	Language     Language
	Style        Style
	Theme        Theme
	AudioType    AudioType

	// 创作成员, 按分工分组; 空组不上报
	Singers      []AuthorInfo
	Lyricists    []AuthorInfo
	Composers    []AuthorInfo
	Arrangers    []AuthorInfo
	Mixers       []AuthorInfo
	Players      []AuthorInfo
	SoundSources []AuthorInfo
	Tuners       []AuthorInfo
	CoverMakers  []AuthorInfo

	// 关联稿件与分区
	AVID          int64
	CID           int64
	TID           int64
	CompilationID int64
	// IsMuxed 音频是否由关联稿件的音轨提取
	IsMuxed bool

	// CoverURL 封面地址, 封面上传阶段回填
	CoverURL string
	// Lyric LRC 歌词全文, 提交后通过歌词接口附加
	Lyric string
}

// Validate 校验元数据: 标题必填且不超长, 已设置的分类取值合法,
// 人声类歌曲至少要有一名歌手
func (m *SongMeta) Validate() error {
	if m.Title == "" {
		return errors.New(errors.ErrCodeValidationFailed, "Title is required", 0)
	}
	if utf8.RuneCountInString(m.Title) > maxTitleRunes {
		return errors.New(errors.ErrCodeValidationFailed,
			fmt.Sprintf("Title exceeds %d characters", maxTitleRunes), 0)
	}

	if !m.AudioType.Valid() {
		return invalidCategory("audio_type", int(m.AudioType))
	}
	if m.ContentType != 0 && !m.ContentType.Valid() {
		return invalidCategory("music_type", int(m.ContentType))
	}
	if m.CreationType != 0 && !m.CreationType.Valid() {
		return invalidCategory("cr_type", int(m.CreationType))
	}
	if m.SongType != 0 && !m.SongType.Valid() {
		return invalidCategory("song_type", int(m.SongType))
	}
	if m.Language != 0 && !m.Language.Valid() {
		return invalidCategory("language", int(m.Language))
	}
	if m.Style != 0 && !m.Style.Valid() {
		return invalidCategory("style", int(m.Style))
	}
	if m.Theme != 0 && !m.Theme.Valid() {
		return invalidCategory("theme", int(m.Theme))
	}

	switch m.SongType {
	case SongVocal, SongVocaloid, SongHumanVoice:
		if len(m.Singers) == 0 {
			return errors.New(errors.ErrCodeValidationFailed,
				"Vocal song types need at least one singer", 0)
		}
	}
	return nil
}

func invalidCategory(field string, value int) error {
	return errors.New(errors.ErrCodeValidationFailed,
		fmt.Sprintf("Invalid %s value %d", field, value), 0)
}

// memberGroup member_with_type 的一组成员
type memberGroup struct {
	Type    int          `json:"type"`
	Members []AuthorInfo `json:"members"`
}

// memberWithType 把成员分组序列化成提交用的 JSON, 空组剔除
func (m *SongMeta) memberWithType() (string, error) {
	groups := []struct {
		role Role
		list []AuthorInfo
	}{
		{RoleSinger, m.Singers},
		{RoleLyricist, m.Lyricists},
		{RoleComposer, m.Composers},
		{RoleArranger, m.Arrangers},
		{RoleMixer, m.Mixers},
		{RolePlayer, m.Players},
		{RoleSoundSource, m.SoundSources},
		{RoleTuner, m.Tuners},
		{RoleCoverMaker, m.CoverMakers},
	}

	out := make([]memberGroup, 0, len(groups))
	for _, g := range groups {
		if len(g.list) == 0 {
			continue
		}
		out = append(out, memberGroup{Type: int(g.role), Members: g.list})
	}

	raw, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("failed to encode member groups: %w", err)
	}
	return string(raw), nil
}

// form 序列化成提交表单. mid 为投稿人 UID, songFileKey 与 bizID 来自上传凭证
func (m *SongMeta) form(mid int64, songFileKey string, bizID int64) (bilibili.Params, error) {
	tagList := m.Tags
	if tagList == nil {
		tagList = []string{}
	}
	tags, err := json.Marshal(tagList)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tags: %w", err)
	}
	members, err := m.memberWithType()
	if err != nil {
		return nil, err
	}

	params := bilibili.Params{
		"title":            m.Title,
		"intro":            m.Intro,
		"cover_url":        m.CoverURL,
		"song_tags":        string(tags),
		"mid":              strconv.FormatInt(mid, 10),
		"cr_type":          strconv.Itoa(int(m.CreationType)),
		"music_type":       strconv.Itoa(int(m.ContentType)),
		"song_type":        strconv.Itoa(int(m.SongType)),
		"language":         strconv.Itoa(int(m.Language)),
		"style":            strconv.Itoa(int(m.Style)),
		"theme":            strconv.Itoa(int(m.Theme)),
		"audio_type":       strconv.Itoa(int(m.AudioType)),
		"member_with_type": members,
		"song_file_name":   songFileKey,
		"biz_id":           strconv.FormatInt(bizID, 10),
		"is_mux":           boolFlag(m.IsMuxed),
	}

	if len(m.Aliases) > 0 {
		aliases, err := json.Marshal(m.Aliases)
		if err != nil {
			return nil, fmt.Errorf("failed to encode aliases: %w", err)
		}
		params["aliases"] = string(aliases)
	}
	if m.AVID > 0 {
		params["avid"] = strconv.FormatInt(m.AVID, 10)
	}
	if m.CID > 0 {
		params["cid"] = strconv.FormatInt(m.CID, 10)
	}
	if m.TID > 0 {
		params["tid"] = strconv.FormatInt(m.TID, 10)
	}
	if m.CompilationID > 0 {
		params["compilation_id"] = strconv.FormatInt(m.CompilationID, 10)
	}
	return params, nil
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
