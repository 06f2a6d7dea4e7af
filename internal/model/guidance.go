package model

import "fmt"

// speechInstallGuidance provides instructions for installing the MeloTTS
// runner.
func speechInstallGuidance() string {
	return `The melotts runner is not installed. To install:

1. Install MeloTTS and its runner:

   pip install git+https://github.com/myshell-ai/MeloTTS.git
   python -m unidic download

2. Make sure the melotts binary is on PATH:

   which melotts

3. Verify it can list voices:

   melotts speakers --language EN`
}

// converterInstallGuidance provides instructions for installing the
// OpenVoice runner.
func converterInstallGuidance() string {
	return `The openvoice runner is not installed. To install:

1. Install OpenVoice and its runner:

   pip install git+https://github.com/myshell-ai/OpenVoice.git

2. Make sure the openvoice binary is on PATH:

   which openvoice`
}

// checkpointGuidance provides instructions for fetching the checkpoint
// bundle into root.
func checkpointGuidance(root string) string {
	return fmt.Sprintf(`Converter checkpoints not found under %s. To download:

1. Fetch the checkpoint bundle:

   wget https://myshell-public-repo-host.s3.amazonaws.com/openvoice/checkpoints_v2_0417.zip

2. Unpack it so the converter lands at %s/converter:

   unzip checkpoints_v2_0417.zip -d %s

3. Or point --checkpoints at an existing bundle.`, root, root, root)
}
