package ui

import "sync"

// Localization manages UI text translations
type Localization struct {
	mu              sync.RWMutex
	currentLanguage string
	texts           map[string]map[string]string
}

// Text keys for localization
const (
	KeyAppTitle          = "app_title"
	KeyDownload          = "download"
	KeyOpen              = "open"
	KeyReveal            = "reveal"
	KeyCopyPath          = "copy_path"
	KeyCancel            = "cancel"
	KeyRestart           = "restart"
	KeyRemove            = "remove"
	KeySettings          = "settings"
	KeyFile              = "file"
	KeyTasks             = "tasks"
	KeyLanguage          = "language"
	KeyRemoveCompleted   = "remove_completed"
	KeyRemoveInactive    = "remove_inactive"
	KeyRestartFailed     = "restart_failed"
	KeyCancelAll         = "cancel_all"
	KeyDownloadDirectory = "download_directory"
	KeyMaxParallel       = "max_parallel"
	KeyContainer         = "container"
	KeyFilenameTemplate  = "filename_template"
	KeyTemplateHint      = "template_hint"
	KeySkipExisting      = "skip_existing"
	KeyTagFiles          = "tag_files"
	KeyEnrichMetadata    = "enrich_metadata"
	KeyFFmpegPath        = "ffmpeg_path"
	KeyRestartRequired   = "restart_required"
	KeySave              = "save"
	KeyBrowse            = "browse"
	KeyEnterQuery        = "enter_query"
	KeyPleaseEnterQuery  = "please_enter_query"
	KeyResolving         = "resolving"
	KeySettingsSaved     = "settings_saved"
	KeyDownloadCompleted = "download_completed"
	KeyErrorOpeningFile  = "error_opening_file"
	KeyPathCopied        = "path_copied"
	KeyPathUnavailable   = "path_unavailable"
	KeyNothingFound      = "nothing_found"
	KeyNothingFoundHint  = "nothing_found_hint"
	KeyError             = "error"
	KeyDownloadTracks    = "download_tracks"
	KeySelectAll         = "select_all"
)

// NewLocalization creates a new localization manager
func NewLocalization() *Localization {
	l := &Localization{
		currentLanguage: "en",
		texts:           make(map[string]map[string]string),
	}

	l.initializeTexts()
	return l
}

// SetLanguage sets the current language
func (l *Localization) SetLanguage(lang string) {
	if lang == "system" {
		// Use system locale - simplified to English for now
		lang = "en"
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.texts[lang]; exists {
		l.currentLanguage = lang
	}
}

// GetText returns localized text for the given key
func (l *Localization) GetText(key string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if texts, exists := l.texts[l.currentLanguage]; exists {
		if text, found := texts[key]; found {
			return text
		}
	}

	// Fallback to English
	if texts, exists := l.texts["en"]; exists {
		if text, found := texts[key]; found {
			return text
		}
	}

	// Final fallback - return key itself
	return key
}

// GetCurrentLanguage returns the current language code
func (l *Localization) GetCurrentLanguage() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.currentLanguage
}

// GetAvailableLanguages returns map of available languages with their display names
func (l *Localization) GetAvailableLanguages() map[string]string {
	return map[string]string{
		"en": "English",
		"ru": "Русский",
		"pt": "Português",
	}
}

// initializeTexts initializes all text translations
func (l *Localization) initializeTexts() {
	// English texts
	l.texts["en"] = map[string]string{
		KeyAppTitle:          "YT Queue",
		KeyDownload:          "Download",
		KeyOpen:              "Open",
		KeyReveal:            "Reveal",
		KeyCopyPath:          "Path",
		KeyCancel:            "Cancel",
		KeyRestart:           "Restart",
		KeyRemove:            "Remove",
		KeySettings:          "Settings",
		KeyFile:              "File",
		KeyTasks:             "Tasks",
		KeyLanguage:          "Language",
		KeyRemoveCompleted:   "Remove completed",
		KeyRemoveInactive:    "Remove inactive",
		KeyRestartFailed:     "Restart failed",
		KeyCancelAll:         "Cancel all",
		KeyDownloadDirectory: "Download Directory",
		KeyMaxParallel:       "Max Parallel Downloads",
		KeyContainer:         "Output Format",
		KeyFilenameTemplate:  "Filename Template",
		KeyTemplateHint:      "Tokens: $num $id $title $author",
		KeySkipExisting:      "Skip files that already exist",
		KeyTagFiles:          "Write tags and cover art",
		KeyEnrichMetadata:    "Look up tags on MusicBrainz",
		KeyFFmpegPath:        "FFmpeg Binary",
		KeyRestartRequired:   "Takes effect after restart",
		KeySave:              "Save",
		KeyBrowse:            "Browse",
		KeyEnterQuery:        "YouTube links or search text, one per line",
		KeyPleaseEnterQuery:  "Please enter at least one link",
		KeyResolving:         "Looking up links...",
		KeySettingsSaved:     "Settings saved successfully!",
		KeyDownloadCompleted: "Download completed",
		KeyErrorOpeningFile:  "Error opening file",
		KeyPathCopied:        "Path copied to clipboard",
		KeyPathUnavailable:   "File path not available",
		KeyNothingFound:      "Nothing found",
		KeyNothingFoundHint:  "Nothing to download was found for this query.",
		KeyError:             "Error",
		KeyDownloadTracks:    "Download %d tracks",
		KeySelectAll:         "Select all",
	}

	// Russian texts
	l.texts["ru"] = map[string]string{
		KeyAppTitle:          "YT Очередь",
		KeyDownload:          "Скачать",
		KeyOpen:              "Открыть",
		KeyReveal:            "Показать",
		KeyCopyPath:          "Путь",
		KeyCancel:            "Отмена",
		KeyRestart:           "Повторить",
		KeyRemove:            "Удалить",
		KeySettings:          "Настройки",
		KeyFile:              "Файл",
		KeyTasks:             "Задачи",
		KeyLanguage:          "Язык",
		KeyRemoveCompleted:   "Удалить завершённые",
		KeyRemoveInactive:    "Удалить неактивные",
		KeyRestartFailed:     "Повторить неудачные",
		KeyCancelAll:         "Отменить все",
		KeyDownloadDirectory: "Папка загрузки",
		KeyMaxParallel:       "Макс. параллельных",
		KeyContainer:         "Формат файла",
		KeyFilenameTemplate:  "Шаблон имени файла",
		KeyTemplateHint:      "Токены: $num $id $title $author",
		KeySkipExisting:      "Пропускать существующие файлы",
		KeyTagFiles:          "Записывать теги и обложку",
		KeyEnrichMetadata:    "Искать теги в MusicBrainz",
		KeyFFmpegPath:        "Путь к FFmpeg",
		KeyRestartRequired:   "Вступит в силу после перезапуска",
		KeySave:              "Сохранить",
		KeyBrowse:            "Обзор",
		KeyEnterQuery:        "Ссылки YouTube или текст для поиска, по одному в строке",
		KeyPleaseEnterQuery:  "Введите хотя бы одну ссылку",
		KeyResolving:         "Поиск по ссылкам...",
		KeySettingsSaved:     "Настройки успешно сохранены!",
		KeyDownloadCompleted: "Загрузка завершена",
		KeyErrorOpeningFile:  "Ошибка открытия файла",
		KeyPathCopied:        "Путь скопирован",
		KeyPathUnavailable:   "Путь к файлу недоступен",
		KeyNothingFound:      "Ничего не найдено",
		KeyNothingFoundHint:  "По этому запросу нечего скачивать.",
		KeyError:             "Ошибка",
		KeyDownloadTracks:    "Скачать треков: %d",
		KeySelectAll:         "Выбрать все",
	}

	// Portuguese texts
	l.texts["pt"] = map[string]string{
		KeyAppTitle:          "YT Queue",
		KeyDownload:          "Baixar",
		KeyOpen:              "Abrir",
		KeyReveal:            "Mostrar",
		KeyCopyPath:          "Caminho",
		KeyCancel:            "Cancelar",
		KeyRestart:           "Reiniciar",
		KeyRemove:            "Remover",
		KeySettings:          "Configurações",
		KeyFile:              "Arquivo",
		KeyTasks:             "Tarefas",
		KeyLanguage:          "Idioma",
		KeyRemoveCompleted:   "Remover concluídas",
		KeyRemoveInactive:    "Remover inativas",
		KeyRestartFailed:     "Reiniciar falhas",
		KeyCancelAll:         "Cancelar todas",
		KeyDownloadDirectory: "Diretório de Download",
		KeyMaxParallel:       "Max Downloads Paralelos",
		KeyContainer:         "Formato de Saída",
		KeyFilenameTemplate:  "Modelo de Nome de Arquivo",
		KeyTemplateHint:      "Tokens: $num $id $title $author",
		KeySkipExisting:      "Pular arquivos existentes",
		KeyTagFiles:          "Gravar tags e capa",
		KeyEnrichMetadata:    "Buscar tags no MusicBrainz",
		KeyFFmpegPath:        "Binário do FFmpeg",
		KeyRestartRequired:   "Aplica-se após reiniciar",
		KeySave:              "Salvar",
		KeyBrowse:            "Navegar",
		KeyEnterQuery:        "Links do YouTube ou texto de busca, um por linha",
		KeyPleaseEnterQuery:  "Digite pelo menos um link",
		KeyResolving:         "Consultando links...",
		KeySettingsSaved:     "Configurações salvas com sucesso!",
		KeyDownloadCompleted: "Download concluído",
		KeyErrorOpeningFile:  "Erro ao abrir arquivo",
		KeyPathCopied:        "Caminho copiado",
		KeyPathUnavailable:   "Caminho do arquivo indisponível",
		KeyNothingFound:      "Nada encontrado",
		KeyNothingFoundHint:  "Nada para baixar foi encontrado para esta busca.",
		KeyError:             "Erro",
		KeyDownloadTracks:    "Baixar %d faixas",
		KeySelectAll:         "Selecionar tudo",
	}
}
